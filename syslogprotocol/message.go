package syslogprotocol

import (
	"strconv"
	"strings"
	"time"
)

// Message is a syslog message decoded from the wire
//
// Except Variant and Body, all fields are optional: empty strings, zero timestamp and HasPriority=false mean unknown.
type Message struct {
	Variant        Variant
	HasPriority    bool
	Facility       Facility
	Severity       Severity
	Timestamp      time.Time
	Hostname       string
	AppName        string // TAG in RFC 3164
	ProcID         string
	MsgID          string // RFC 5424 only
	StructuredData []SDElement
	Body           string
}

// Priority returns the PRI value or -1 if unknown
func (m Message) Priority() int {
	if !m.HasPriority {
		return -1
	}
	return Priority(m.Facility, m.Severity)
}

// SDParam looks up a parameter value from the element of the given SD-ID
func (m Message) SDParam(id string, name string) (string, bool) {
	for _, e := range m.StructuredData {
		if e.ID == id {
			if v, ok := e.Param(name); ok {
				return v, true
			}
		}
	}
	return "", false
}

// String formats the message for display, e.g.
//
//	facility=user severity=notice timestamp=2024-01-02T03:04:05Z host=box app=cron[42] msgid=- sd=- msg="hello"
func (m Message) String() string {
	sb := strings.Builder{}
	sb.Grow(len(m.Body) + 128)
	if m.HasPriority {
		sb.WriteString("facility=")
		sb.WriteString(m.Facility.String())
		sb.WriteString(" severity=")
		sb.WriteString(m.Severity.String())
	} else {
		sb.WriteString("facility=unknown severity=unknown")
	}
	sb.WriteString(" timestamp=")
	if m.Timestamp.IsZero() {
		sb.WriteByte('-')
	} else {
		sb.WriteString(m.Timestamp.Format(time.RFC3339Nano))
	}
	sb.WriteString(" host=")
	sb.WriteString(orNil(m.Hostname))
	sb.WriteString(" app=")
	sb.WriteString(orNil(m.AppName))
	if m.ProcID != "" {
		sb.WriteByte('[')
		sb.WriteString(m.ProcID)
		sb.WriteByte(']')
	}
	if m.Variant == RFC5424 {
		sb.WriteString(" msgid=")
		sb.WriteString(orNil(m.MsgID))
		sb.WriteString(" sd=")
		sb.Write(AppendStructuredData(nil, m.StructuredData))
	}
	sb.WriteString(" msg=")
	sb.WriteString(strconv.Quote(m.Body))
	return sb.String()
}

func orNil(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
