package base

import (
	"github.com/relex/syslog-tools/syslogprotocol"
)

// MessageReporter is an append-only output of decoded syslog messages, e.g. the log or a console
//
// Reporters may be shared by all connections and must be safe for concurrent use. Report must not block.
type MessageReporter interface {
	Report(peer string, msg syslogprotocol.Message)
}

// MessageReporterFunc adapts a function to MessageReporter
type MessageReporterFunc func(peer string, msg syslogprotocol.Message)

// Report calls the underlying function
func (f MessageReporterFunc) Report(peer string, msg syslogprotocol.Message) {
	f(peer, msg)
}

// MultiReporter sends each message to all of the reporters in order
type MultiReporter []MessageReporter

// Report calls Report of each reporter
func (mr MultiReporter) Report(peer string, msg syslogprotocol.Message) {
	for _, r := range mr {
		r.Report(peer, msg)
	}
}
