package syslogsender

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/output/syslogformat"
	"github.com/relex/syslog-tools/util"
)

// streamSender writes framed messages to a TCP or TLS connection through a buffer
type streamSender struct {
	logger  logger.Logger
	conn    net.Conn
	writer  *bufio.Writer
	framing syslogformat.Framing
}

func newStreamSender(senderLogger logger.Logger, conn net.Conn, framing syslogformat.Framing) *streamSender {
	return &streamSender{
		logger:  senderLogger.WithField(defs.LabelLocal, conn.LocalAddr().String()),
		conn:    conn,
		writer:  bufio.NewWriterSize(conn, defs.SenderWriteBufferSize),
		framing: framing,
	}
}

func dialTCP(ctx context.Context, senderLogger logger.Logger, address string, framing syslogformat.Framing) (*streamSender, error) {
	senderLogger.Infof("connecting to %s in TCP mode", address)
	conn, err := newDialer().DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	senderLogger.Info("connected to ", conn.RemoteAddr())
	return newStreamSender(senderLogger, conn, framing), nil
}

func dialTLS(ctx context.Context, senderLogger logger.Logger, address string, cfg Config) (*streamSender, error) {
	senderLogger.Infof("connecting to %s in TLS mode, server name '%s'", address, cfg.ServerName())
	rawConn, err := newDialer().DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	tlsConn := tls.Client(rawConn, cfg.NewTLSConfig())
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("failed to handshake: %w", err)
	}
	state := tlsConn.ConnectionState()
	senderLogger.Infof("connected to %s, %s %s", rawConn.RemoteAddr(), tls.VersionName(state.Version), tls.CipherSuiteName(state.CipherSuite))
	return newStreamSender(senderLogger, tlsConn, cfg.Framing), nil
}

func (sender *streamSender) Send(message []byte) error {
	if _, err := sender.writer.Write(sender.framing.Frame(message)); err != nil {
		return fmt.Errorf("failed to send: %w", err)
	}
	return nil
}

func (sender *streamSender) Flush() error {
	if err := sender.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

func (sender *streamSender) Close() error {
	flushErr := sender.Flush()
	if err := sender.conn.Close(); err != nil && !util.IsNetworkClosed(err) {
		sender.logger.Warn("error closing connection: ", err)
	}
	return flushErr
}
