package sysloginput

import (
	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/base"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/syslogprotocol"
)

type logReporter struct {
	logger logger.Logger
}

// NewLogReporter creates a MessageReporter to log each decoded message at INFO level
func NewLogReporter(parentLogger logger.Logger) base.MessageReporter {
	return &logReporter{
		logger: parentLogger.WithField(defs.LabelComponent, "LogReporter"),
	}
}

func (rep *logReporter) Report(peer string, msg syslogprotocol.Message) {
	rep.logger.Infof("received %s message from %s: %s", msg.Variant, peer, msg.String())
}
