package syslogformat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relex/syslog-tools/syslogprotocol"
	"golang.org/x/exp/slices"
)

// Framing defines how messages are delimited on stream transports (RFC 6587)
type Framing int

// Supported framing methods
const (
	FramingNone          Framing = iota // no delimiter; receivers rely on read boundaries
	FramingNewline                      // non-transparent framing with LF trailer
	FramingOctetCounting                // "MSG-LEN SP SYSLOG-MSG"
)

// FramingNames contains the command-line names of framing methods
var FramingNames = []string{
	"none",
	"newline",
	"octet-counting",
}

// ParseFraming parses outbound framing name case-insensitively
func ParseFraming(name string) (Framing, error) {
	index := slices.Index(FramingNames, strings.ToLower(name))
	if index != -1 {
		return Framing(index), nil
	}
	return FramingNone, fmt.Errorf("%w: framing '%s' is not one of %v", syslogprotocol.ErrInvalidValue, name, FramingNames)
}

func (fr Framing) String() string {
	if fr < FramingNone || fr > FramingOctetCounting {
		return "unknown"
	}
	return FramingNames[fr]
}

// Frame wraps a formatted payload for sending on a stream
func (fr Framing) Frame(payload []byte) []byte {
	switch fr {
	case FramingNewline:
		return append(payload, '\n')
	case FramingOctetCounting:
		framed := make([]byte, 0, len(payload)+8)
		framed = strconv.AppendInt(framed, int64(len(payload)), 10)
		framed = append(framed, ' ')
		return append(framed, payload...)
	default:
		return payload
	}
}
