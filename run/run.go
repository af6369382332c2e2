// Package run runs the syslog client and server
package run

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/base"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/input/sysloginput"
	"github.com/relex/syslog-tools/syslogprotocol"
	"github.com/relex/syslog-tools/util"
)

// ServerConfig defines the receiver and its outputs
type ServerConfig struct {
	Input       sysloginput.Config
	CertPath    string    // PEM certificate chain, required for TLS
	KeyPath     string    // PEM PKCS8 private key, required for TLS
	Echo        io.Writer // console to print decoded messages to, nil to disable
	EchoColored bool
	MetricsAddr string // empty to disable
}

// Server is a launched receiver
type Server struct {
	logger      logger.Logger
	input       base.LogInput
	console     *sysloginput.ConsoleReporter
	stopRequest *channels.SignalAwaitable
}

// StartServer binds the listener, starts accepting connections and returns the running server
func StartServer(parentLogger logger.Logger, config ServerConfig, metricFactory *base.MetricFactory) (*Server, error) {
	if config.Input.Transport == syslogprotocol.TransportTLS && config.Input.Identity == nil {
		identity, err := LoadTLSIdentity(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, err
		}
		config.Input.Identity = &identity
	}

	srv := &Server{
		logger:      parentLogger.WithField(defs.LabelComponent, "Server"),
		stopRequest: channels.NewSignalAwaitable(),
	}

	reporters := base.MultiReporter{sysloginput.NewLogReporter(parentLogger)}
	if config.Echo != nil {
		srv.console = sysloginput.NewConsoleReporter(parentLogger, config.Echo, config.EchoColored)
		reporters = append(reporters, srv.console)
	}

	in, err := config.Input.NewInput(parentLogger, reporters, metricFactory, srv.stopRequest)
	if err != nil {
		if srv.console != nil {
			srv.console.Close()
		}
		return nil, err
	}
	srv.input = in
	in.Launch()
	srv.logger.Infof("listening on %s (%s)", in.Address(), config.Input.Transport)
	return srv, nil
}

// Address returns the bound listener address
func (srv *Server) Address() string {
	return srv.input.Address()
}

// Stopped returns an awaitable signalled after the listener and all connections have ended
func (srv *Server) Stopped() channels.Awaitable {
	return srv.input.Stopped()
}

// Shutdown closes the listener and all open connections abruptly, then waits for them to end
func (srv *Server) Shutdown() {
	srv.stopRequest.Signal()
	srv.input.Stopped().WaitForever()
	if srv.console != nil {
		srv.console.Close()
	}
}

// RunServer runs the server until stopped by signals
func RunServer(config ServerConfig, metricFactory *base.MetricFactory) {
	runLogger := logger.WithField(defs.LabelComponent, "Launcher")

	if config.MetricsAddr != "" {
		msrv := util.LaunchMetricsListener(config.MetricsAddr)
		defer func() {
			if err := msrv.Shutdown(context.Background()); err != nil {
				runLogger.Errorf("error shutting down metrics listener: %v", err)
			}
		}()
	}

	srv, err := StartServer(logger.Root(), config, metricFactory)
	if err != nil {
		runLogger.Fatalf("failed to start server: %s", err.Error())
	}

	// wait for shutdown signal
	{
		sigChan := make(chan os.Signal, 10)
		signal.Notify(sigChan, syscall.SIGINT)
		signal.Notify(sigChan, syscall.SIGTERM)
		s := <-sigChan
		runLogger.Infof("received %s, shutting down", s)
	}

	srv.Shutdown()
	runLogger.Info("clean exit")
}
