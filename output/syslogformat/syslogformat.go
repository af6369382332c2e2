// Package syslogformat builds wire payloads of RFC 3164 and RFC 5424 syslog messages
//
// Formatting is pure: no network I/O is done here and the only context read is what's stored in Formatter.
package syslogformat

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/relex/syslog-tools/syslogprotocol"
)

// Max lengths of RFC 5424 header fields
const (
	MaxHostnameLength = 255
	MaxAppNameLength  = 48
	MaxProcIDLength   = 128
	MaxMsgIDLength    = 32
)

// MaxTagLength is the max length of RFC 3164 TAG
const MaxTagLength = 32

// rfc3164TimeLayout pads single-digit days with a space, e.g. "Oct  1 22:14:15"
const rfc3164TimeLayout = "Jan _2 15:04:05"

// rfc5424TimeLayout is RFC 3339 with microseconds, the max precision allowed by RFC 5424
const rfc5424TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Formatter fills the process-local context of syslog headers
type Formatter struct {
	Facility syslogprotocol.Facility
	Hostname string
	AppName  string
	ProcID   string
	Now      func() time.Time
}

// NewFormatter creates a Formatter with local hostname, process name and PID, and the default facility
func NewFormatter() Formatter {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = ""
	}
	return Formatter{
		Facility: syslogprotocol.DefaultFacility,
		Hostname: hostname,
		AppName:  filepath.Base(os.Args[0]),
		ProcID:   strconv.Itoa(os.Getpid()),
		Now:      time.Now,
	}
}

// FormatRFC3164 creates "<PRI>Mmm dd hh:mm:ss HOSTNAME TAG: BODY"
//
// HOSTNAME is omitted if unknown, since RFC 3164 has no nil value. TAG is cut to MaxTagLength.
func (f Formatter) FormatRFC3164(severity syslogprotocol.Severity, body string) []byte {
	buf := make([]byte, 0, len(body)+64)
	buf = f.appendPRI(buf, severity)
	buf = f.now().AppendFormat(buf, rfc3164TimeLayout)
	buf = append(buf, ' ')
	if f.Hostname != "" {
		buf = AppendHeaderField(buf, f.Hostname, MaxHostnameLength)
		buf = append(buf, ' ')
	}
	buf = AppendHeaderField(buf, f.AppName, MaxTagLength)
	buf = append(buf, ':', ' ')
	return append(buf, body...)
}

// FormatRFC5424 creates "<PRI>1 TIMESTAMP HOSTNAME APP-NAME PROCID MSGID STRUCTURED-DATA BODY"
//
// Empty header fields are written as "-" and so is STRUCTURED-DATA without elements.
// The space before BODY is omitted if BODY is empty.
func (f Formatter) FormatRFC5424(severity syslogprotocol.Severity, msgID string, elements []syslogprotocol.SDElement, body string) []byte {
	buf := make([]byte, 0, len(body)+128)
	buf = f.appendPRI(buf, severity)
	buf = append(buf, '1', ' ')
	buf = f.now().AppendFormat(buf, rfc5424TimeLayout)
	buf = append(buf, ' ')
	buf = AppendHeaderField(buf, f.Hostname, MaxHostnameLength)
	buf = append(buf, ' ')
	buf = AppendHeaderField(buf, f.AppName, MaxAppNameLength)
	buf = append(buf, ' ')
	buf = AppendHeaderField(buf, f.ProcID, MaxProcIDLength)
	buf = append(buf, ' ')
	buf = AppendHeaderField(buf, msgID, MaxMsgIDLength)
	buf = append(buf, ' ')
	buf = syslogprotocol.AppendStructuredData(buf, elements)
	if len(body) > 0 {
		buf = append(buf, ' ')
		buf = append(buf, body...)
	}
	return buf
}

// Format dispatches to FormatRFC3164 or FormatRFC5424; msgID and elements are ignored by RFC 3164
func (f Formatter) Format(variant syslogprotocol.Variant, severity syslogprotocol.Severity, msgID string,
	elements []syslogprotocol.SDElement, body string) []byte {
	if variant == syslogprotocol.RFC5424 {
		return f.FormatRFC5424(severity, msgID, elements, body)
	}
	return f.FormatRFC3164(severity, body)
}

func (f Formatter) appendPRI(buf []byte, severity syslogprotocol.Severity) []byte {
	buf = append(buf, '<')
	buf = strconv.AppendInt(buf, int64(syslogprotocol.Priority(f.Facility, severity)), 10)
	return append(buf, '>')
}

func (f Formatter) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// AppendHeaderField writes a header field as printable US-ASCII without spaces, truncated to maxLength
//
// Empty value is written as "-" and forbidden characters are replaced by '_'
func AppendHeaderField(buf []byte, value string, maxLength int) []byte {
	if value == "" {
		return append(buf, '-')
	}
	if len(value) > maxLength {
		value = value[:maxLength]
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c <= ' ' || c >= 0x7F {
			c = '_'
		}
		buf = append(buf, c)
	}
	return buf
}

// IsValidHeaderField checks whether value can be written as it is in a RFC 5424 header field of maxLength
func IsValidHeaderField(value string, maxLength int) bool {
	if len(value) == 0 || len(value) > maxLength || value == "-" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if c := value[i]; c <= ' ' || c >= 0x7F {
			return false
		}
	}
	return true
}
