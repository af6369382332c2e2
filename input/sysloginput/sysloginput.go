// Package sysloginput provides a diagnostic syslog receiver via TCP or TLS
//
// Each incoming chunk (or line) is decoded by the lenient parser and passed to a MessageReporter, typically the log.
// Malformed input never terminates a connection.
package sysloginput

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/base"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/input/syslogparser"
	"github.com/relex/syslog-tools/input/tcplistener"
	"github.com/relex/syslog-tools/syslogprotocol"
)

// ErrUDPUnsupported is returned for receivers configured with UDP transport
var ErrUDPUnsupported = errors.New("UDP is not supported by the receiver")

// Config provides configuration for SyslogInput
type Config struct {
	Host           string                   // listening host, e.g. "[::]" or "localhost". Empty means any.
	Port           int                      // listening port, 0 to be assigned by OS
	Transport      syslogprotocol.Transport // TCP or TLS
	Identity       *tls.Certificate         // server certificate and key, required for TLS
	Framing        tcplistener.Framing
	ReadBufferSize int    // per-connection read buffer, 0 for default
	MaxConnections int    // 0 for unlimited
	Filter         string // glob of message body to report, empty for all
}

type input struct {
	listener base.LogListener
	address  string
}

// Address returns "host:port" to listen on
func (cfg *Config) Address() string {
	host := cfg.Host
	if len(host) > 2 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	return net.JoinHostPort(host, strconv.Itoa(cfg.Port))
}

// VerifyConfig checks configuration
func (cfg *Config) VerifyConfig() error {
	_, err := cfg.verify()
	return err
}

// verify checks configuration and returns the compiled filter
func (cfg *Config) verify() (bodyFilter, error) {
	switch cfg.Transport {
	case syslogprotocol.TransportTCP:
	case syslogprotocol.TransportTLS:
		if cfg.Identity == nil {
			return nil, fmt.Errorf("TLS requires server certificate and key")
		}
	case syslogprotocol.TransportUDP:
		return nil, ErrUDPUnsupported
	default:
		return nil, fmt.Errorf("%w: transport %d", syslogprotocol.ErrInvalidValue, cfg.Transport)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d is out of range", cfg.Port)
	}
	if cfg.ReadBufferSize < 0 {
		return nil, fmt.Errorf("read buffer size %d is negative", cfg.ReadBufferSize)
	}
	if cfg.MaxConnections < 0 {
		return nil, fmt.Errorf("max connections %d is negative", cfg.MaxConnections)
	}
	return newBodyFilter(cfg.Filter)
}

// NewInput creates a SyslogInput and binds the network listener
//
// The listener doesn't accept connections until Launch
func (cfg *Config) NewInput(parentLogger logger.Logger, reporter base.MessageReporter, metricFactory *base.MetricFactory,
	stopRequest channels.Awaitable) (base.LogInput, error) {

	filter, err := cfg.verify()
	if err != nil {
		return nil, err
	}

	inputLogger := parentLogger.WithField(defs.LabelComponent, "SyslogInput")

	var tlsConfig *tls.Config
	if cfg.Transport == syslogprotocol.TransportTLS {
		tlsConfig = NewServerTLSConfig(*cfg.Identity)
	}

	receiver := newMessageParsingReceiver(inputLogger, syslogparser.NewParser(inputLogger), filter, reporter, metricFactory)

	lsnr, addr, err := tcplistener.NewTCPChunkListener(inputLogger, cfg.Address(), tlsConfig, tcplistener.Options{
		Framing:        cfg.Framing,
		ReadBufferSize: cfg.ReadBufferSize,
		MaxConnections: cfg.MaxConnections,
		Metrics:        metricFactory,
	}, receiver, stopRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Address(), err)
	}

	return &input{
		listener: lsnr,
		address:  addr,
	}, nil
}

func (in *input) Address() string {
	return in.address
}

func (in *input) Stopped() channels.Awaitable {
	return in.listener.Stopped()
}

func (in *input) Launch() {
	in.listener.Start()
}
