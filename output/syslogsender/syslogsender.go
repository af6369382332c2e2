// Package syslogsender delivers formatted syslog messages over UDP, TCP or TLS
//
// A Sender connects once at construction and never reconnects; later I/O errors are returned to the caller.
// Senders are not safe for concurrent use.
package syslogsender

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rbmk-project/common/errclass"
	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/syslogprotocol"
)

// ErrUnsupportedTransport is returned by Dial for unknown transport values
var ErrUnsupportedTransport = errors.New("unsupported transport")

// Sender sends formatted messages to a syslog server
type Sender interface {
	// Send sends one formatted message, applying framing for stream transports
	Send(message []byte) error

	// Flush forces buffered bytes out to the network
	Flush() error

	// Close flushes and closes the underlying socket
	Close() error
}

// Dial connects to the destination by the configured transport
//
// For TLS, the handshake is performed here and a failure is returned as error.
func Dial(ctx context.Context, parentLogger logger.Logger, cfg Config) (Sender, error) {
	address := cfg.Address()
	senderLogger := parentLogger.WithFields(logger.Fields{
		defs.LabelComponent: "SyslogSender",
		defs.LabelTransport: cfg.Transport.String(),
		defs.LabelAddress:   address,
	})

	var sender Sender
	var err error
	switch cfg.Transport {
	case syslogprotocol.TransportUDP:
		sender, err = dialUDP(ctx, senderLogger, address)
	case syslogprotocol.TransportTCP:
		sender, err = dialTCP(ctx, senderLogger, address, cfg.Framing)
	case syslogprotocol.TransportTLS:
		sender, err = dialTLS(ctx, senderLogger, address, cfg)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedTransport, cfg.Transport)
	}
	if err != nil {
		senderLogger.WithField(defs.LabelErrorClass, errclass.New(err)).Warn("failed to connect: ", err)
		return nil, err
	}
	return sender, nil
}

func newDialer() *net.Dialer {
	return &net.Dialer{
		Timeout: defs.SenderConnectionTimeout,
	}
}
