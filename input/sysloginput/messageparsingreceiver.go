package sysloginput

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/base"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/input/syslogparser"
	"github.com/relex/syslog-tools/syslogprotocol"
	"github.com/relex/syslog-tools/util"
)

type messageParsingReceiver struct {
	logger   logger.Logger
	parser   *syslogparser.Parser
	filter   bodyFilter
	reporter base.MessageReporter
	messages *prometheus.CounterVec
}

type messageParsingReceiverSink struct {
	logger   logger.Logger
	peer     string
	receiver *messageParsingReceiver
	count    int
}

// newMessageParsingReceiver creates a MultiSinkMessageReceiver to parse incoming messages and pass them to a reporter
//
// The parser is stateless and shared by all sinks
func newMessageParsingReceiver(parentLogger logger.Logger, parser *syslogparser.Parser, filter bodyFilter,
	reporter base.MessageReporter, metricFactory *base.MetricFactory) base.MultiSinkMessageReceiver {
	if metricFactory == nil {
		metricFactory = base.NewMetricFactory("syslog_server_", nil, nil)
	}
	return &messageParsingReceiver{
		logger:   parentLogger.WithField(defs.LabelComponent, "MessageParsingReceiver"),
		parser:   parser,
		filter:   filter,
		reporter: reporter,
		messages: metricFactory.AddOrGetCounterVec("received_messages_total", "Numbers of received messages by detected protocol", []string{"protocol"}, nil),
	}
}

func (recv *messageParsingReceiver) NewSink(clientAddress string, clientNumber base.ClientNumber) base.MessageReceiverSink {
	return &messageParsingReceiverSink{
		logger:   base.NewSinkLogger(recv.logger, clientAddress, clientNumber),
		peer:     clientAddress,
		receiver: recv,
		count:    0,
	}
}

func (sink *messageParsingReceiverSink) Accept(message []byte) {
	sink.logger.Debug("raw: ", util.TruncateForLogging(message, defs.MaxLoggingMessageSize))
	msg := sink.receiver.parser.Parse(message, time.Now())
	sink.count++
	sink.receiver.messages.WithLabelValues(protocolLabel(msg)).Inc()
	if sink.receiver.filter != nil && !sink.receiver.filter(msg.Body) {
		return
	}
	sink.receiver.reporter.Report(sink.peer, msg)
}

func (sink *messageParsingReceiverSink) Close() {
	sink.logger.Infof("close after %d messages", sink.count)
}

func protocolLabel(msg syslogprotocol.Message) string {
	if !msg.HasPriority {
		return "unknown"
	}
	return msg.Variant.String()
}
