package syslogsender

import (
	"context"
	"fmt"
	"net"

	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/util"
)

// udpSender sends each message as one datagram from a socket bound at construction
type udpSender struct {
	logger logger.Logger
	conn   net.Conn
}

func dialUDP(ctx context.Context, senderLogger logger.Logger, address string) (*udpSender, error) {
	senderLogger.Infof("sending to %s in UDP mode", address)
	conn, err := newDialer().DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket for %s: %w", address, err)
	}
	return &udpSender{
		logger: senderLogger.WithField(defs.LabelLocal, conn.LocalAddr().String()),
		conn:   conn,
	}, nil
}

func (sender *udpSender) Send(message []byte) error {
	if _, err := sender.conn.Write(message); err != nil {
		return fmt.Errorf("failed to send datagram: %w", err)
	}
	return nil
}

func (sender *udpSender) Flush() error {
	return nil
}

func (sender *udpSender) Close() error {
	if err := sender.conn.Close(); err != nil && !util.IsNetworkClosed(err) {
		return err
	}
	return nil
}
