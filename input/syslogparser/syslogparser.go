// Package syslogparser provides a lenient parser of RFC 3164 and RFC 5424 syslog messages.
//
// The parser never fails: when a header field cannot be recognized, it's left empty and the rest of input is taken as
// the message body. Input without a valid "<PRI>" becomes an RFC 3164 message with unknown facility and severity.
package syslogparser

import (
	"strconv"
	"strings"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/syslogprotocol"
	"github.com/relex/syslog-tools/util"
)

const utf8BOM = "\xEF\xBB\xBF"

// rfc3164TimestampLength is the length of "Mmm dd hh:mm:ss"
const rfc3164TimestampLength = 15

// Bounds of RFC 3164 timestamps relative to the received time, beyond which the year is moved by one
const (
	rfc3164MaxFuture = 7 * 24 * time.Hour
	rfc3164MaxPast   = 335 * 24 * time.Hour
)

// maxTagLength is a relaxed limit of RFC 3164 TAG, the same as RFC 5424 APP-NAME
const maxTagLength = 48

// Parser decodes raw chunks into syslog messages
//
// Parser is stateless and safe for concurrent use
type Parser struct {
	logger logger.Logger
}

// NewParser creates a Parser
func NewParser(parentLogger logger.Logger) *Parser {
	return &Parser{
		logger: parentLogger.WithField(defs.LabelComponent, "SyslogParser"),
	}
}

// Parse decodes a raw chunk, with invalid UTF-8 sequences replaced by U+FFFD
//
// The received time is used to complete RFC 3164 timestamps which don't have the year
func (parser *Parser) Parse(input []byte, received time.Time) syslogprotocol.Message {
	msg := ParseString(util.LossyStringFromBytes(input), received)
	if !msg.HasPriority && len(input) > 0 {
		parser.logger.Debug("no syslog header: ", util.TruncateForLogging(input, defs.MaxLoggingMessageSize))
	}
	return msg
}

// ParseString decodes a syslog message from text
func ParseString(text string, received time.Time) syslogprotocol.Message {
	text = strings.TrimRight(text, "\r\n\x00")

	msg := syslogprotocol.Message{Variant: syslogprotocol.RFC3164}
	pri, rest, ok := parsePRI(text)
	if !ok {
		msg.Body = text
		return msg
	}
	msg.Facility, msg.Severity, msg.HasPriority = syslogprotocol.SplitPriority(pri)

	if strings.HasPrefix(rest, "1 ") {
		msg.Variant = syslogprotocol.RFC5424
		parseRFC5424(&msg, rest[2:])
	} else {
		parseRFC3164(&msg, rest, received)
	}
	return msg
}

// parsePRI parses "<PRI>" at the start of s, returns (value, remaining, ok)
func parsePRI(s string) (int, string, bool) {
	if len(s) < 3 || s[0] != '<' {
		return 0, s, false
	}
	end := strings.IndexByte(s, '>')
	if end < 2 || end > 4 {
		return 0, s, false
	}
	digits := s[1:end]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, s, false
		}
	}
	pri, err := strconv.Atoi(digits)
	if err != nil || pri > syslogprotocol.MaxPriority {
		return 0, s, false
	}
	return pri, s[end+1:], true
}

// parseRFC5424 parses "TIMESTAMP HOSTNAME APP-NAME PROCID MSGID STRUCTURED-DATA [MSG]" after "<PRI>1 "
func parseRFC5424(msg *syslogprotocol.Message, s string) {
	var field string
	var more bool

	field, s, more = nextFieldBySpace(s)
	if field != "-" {
		if tm, err := time.Parse(time.RFC3339Nano, field); err == nil {
			msg.Timestamp = tm
		}
	}
	for _, target := range []*string{&msg.Hostname, &msg.AppName, &msg.ProcID, &msg.MsgID} {
		if !more {
			return
		}
		field, s, more = nextFieldBySpace(s)
		*target = nilValue(field)
	}
	if !more {
		return
	}

	switch {
	case s == "-":
		return
	case strings.HasPrefix(s, "- "):
		s = s[2:]
	case strings.HasPrefix(s, "["):
		for len(s) > 0 && s[0] == '[' {
			elem, next, ok := parseSDElement(s)
			if !ok {
				break
			}
			msg.StructuredData = append(msg.StructuredData, elem)
			s = next
		}
		if len(msg.StructuredData) > 0 && len(s) > 0 && s[0] == ' ' {
			s = s[1:]
		}
	}
	msg.Body = strings.TrimPrefix(s, utf8BOM)
}

// parseSDElement parses one `[SD-ID name="value" ...]` at the start of s, returns (element, remaining, ok)
func parseSDElement(s string) (syslogprotocol.SDElement, string, bool) {
	elem := syslogprotocol.SDElement{}
	i := 1
	for i < len(s) && s[i] != ' ' && s[i] != ']' {
		if s[i] == '"' || s[i] == '=' {
			return elem, s, false
		}
		i++
	}
	if i == 1 || i >= len(s) {
		return elem, s, false
	}
	elem.ID = s[1:i]
	for {
		if i >= len(s) {
			return elem, s, false
		}
		if s[i] == ']' {
			return elem, s[i+1:], true
		}
		if s[i] != ' ' {
			return elem, s, false
		}
		for i < len(s) && s[i] == ' ' {
			i++
		}
		nameStart := i
		for i < len(s) && s[i] != '=' && s[i] != ' ' && s[i] != ']' && s[i] != '"' {
			i++
		}
		if i >= len(s) || s[i] != '=' || i == nameStart {
			return elem, s, false
		}
		name := s[nameStart:i]
		i++
		if i >= len(s) || s[i] != '"' {
			return elem, s, false
		}
		i++
		valueStart := i
		for i < len(s) && s[i] != '"' {
			if s[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(s) {
			return elem, s, false
		}
		elem.Params = append(elem.Params, syslogprotocol.SDParam{
			Name:  name,
			Value: syslogprotocol.UnescapeParamValue(s[valueStart:i]),
		})
		i++
	}
}

// parseRFC3164 parses "TIMESTAMP [HOSTNAME] [TAG:] MSG" after "<PRI>"
//
// Whatever cannot be recognized starts the message body
func parseRFC3164(msg *syslogprotocol.Message, s string, received time.Time) {
	tm, rest, ok := parseRFC3164Timestamp(s, received)
	if !ok {
		msg.Body = s
		return
	}
	msg.Timestamp = tm
	if rest == "" {
		return
	}
	rest = rest[1:] // space after timestamp

	token, after, more := nextFieldBySpace(rest)
	if tag, pid, isTag := parseTag(token); isTag {
		msg.AppName, msg.ProcID, msg.Body = tag, pid, after
		return
	}
	if !more || !isHostname(token) {
		msg.Body = rest
		return
	}
	msg.Hostname = token
	rest = after

	token, after, _ = nextFieldBySpace(rest)
	if tag, pid, isTag := parseTag(token); isTag {
		msg.AppName, msg.ProcID, msg.Body = tag, pid, after
		return
	}
	msg.Body = rest
}

// parseRFC3164Timestamp parses "Mmm dd hh:mm:ss" or an RFC 3339 timestamp, which must be followed by a space or the end
//
// RFC 3164 timestamps are completed with the year of the received time, or the adjacent year if that's closer around new year
func parseRFC3164Timestamp(s string, received time.Time) (time.Time, string, bool) {
	if len(s) >= rfc3164TimestampLength && (len(s) == rfc3164TimestampLength || s[rfc3164TimestampLength] == ' ') {
		if tm, err := time.ParseInLocation("Jan _2 15:04:05", s[:rfc3164TimestampLength], received.Location()); err == nil {
			tm = time.Date(received.Year(), tm.Month(), tm.Day(), tm.Hour(), tm.Minute(), tm.Second(), 0, received.Location())
			switch {
			case tm.Sub(received) > rfc3164MaxFuture:
				tm = tm.AddDate(-1, 0, 0)
			case received.Sub(tm) > rfc3164MaxPast:
				tm = tm.AddDate(1, 0, 0)
			}
			return tm, s[rfc3164TimestampLength:], true
		}
	}
	field, _, _ := nextFieldBySpace(s)
	if len(field) >= len("2006-01-02T15:04:05Z") && field[4] == '-' {
		if tm, err := time.Parse(time.RFC3339Nano, field); err == nil {
			return tm, s[len(field):], true
		}
	}
	return time.Time{}, s, false
}

// parseTag recognizes "TAG:" or "TAG[PID]:"
func parseTag(token string) (string, string, bool) {
	if len(token) < 2 || token[len(token)-1] != ':' {
		return "", "", false
	}
	name := token[:len(token)-1]
	pid := ""
	if open := strings.IndexByte(name, '['); open != -1 {
		if name[len(name)-1] != ']' || open == len(name)-2 {
			return "", "", false
		}
		pid = name[open+1 : len(name)-1]
		name = name[:open]
	}
	if name == "" || len(name) > maxTagLength || !isPrintableASCII(name, "[]:") || !isPrintableASCII(pid, "[]") {
		return "", "", false
	}
	return name, pid, true
}

func isHostname(token string) bool {
	return token != "" && len(token) <= 255 && !strings.HasSuffix(token, ":") && isPrintableASCII(token, "[]")
}

func isPrintableASCII(s string, forbidden string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c >= 0x7F || strings.IndexByte(forbidden, c) != -1 {
			return false
		}
	}
	return true
}

// nextFieldBySpace takes next field value separated by space
// return (value, remaining part not including space, whether there is a space)
// Ex: "a b c" will return ("a", "b c", true); "a" will return ("a", "", false)
func nextFieldBySpace(s string) (string, string, bool) {
	end := strings.IndexByte(s, ' ')
	if end == -1 {
		return s, "", false
	}
	return s[:end], s[end+1:], true
}

func nilValue(field string) string {
	if field == "-" {
		return ""
	}
	return field
}
