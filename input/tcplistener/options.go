package tcplistener

import (
	"fmt"
	"strings"

	"github.com/relex/syslog-tools/base"
	"github.com/relex/syslog-tools/syslogprotocol"
	"golang.org/x/exp/slices"
)

// Framing defines how incoming bytes of a connection are divided into messages
type Framing int

// Supported inbound framing methods
const (
	FramingChunk   Framing = iota // each successful read is one message
	FramingNewline                // messages are terminated by LF, partial lines are carried over to the next read
)

// FramingNames contains the command-line names of inbound framing methods
var FramingNames = []string{
	"chunk",
	"newline",
}

// ParseFraming parses inbound framing name case-insensitively
func ParseFraming(name string) (Framing, error) {
	index := slices.Index(FramingNames, strings.ToLower(name))
	if index == -1 {
		return FramingChunk, fmt.Errorf("%w: framing '%s' is not one of %v", syslogprotocol.ErrInvalidValue, name, FramingNames)
	}
	return Framing(index), nil
}

func (fr Framing) String() string {
	if fr < FramingChunk || fr > FramingNewline {
		return "unknown"
	}
	return FramingNames[fr]
}

// Options contains optional settings of a listener
type Options struct {
	Framing        Framing
	ReadBufferSize int                 // per-connection buffer, 0 for defs.ListenerReadBufferSize
	MaxConnections int                 // 0 for unlimited
	Metrics        *base.MetricFactory // nil for the default factory of "syslog_server_" prefix
}
