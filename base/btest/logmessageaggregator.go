package btest

import (
	"fmt"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/base"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/util"
)

// A basic implementation of MultiSinkMessageReceiver for testing purpose
type logMessageAggregator struct {
	logger        logger.Logger
	outputChannel chan<- string
}

type logMessageAggregatorSink struct {
	logger        logger.Logger
	clientNumber  base.ClientNumber
	outputChannel chan<- string
}

// NewLogMessageAggregator creates a basic implementation of MultiSinkMessageReceiver, to collect incoming raw messages into a single channel
//
// Each message is prefixed by the client number, e.g. "1: <13>hello", and "N: closed" is sent when a sink is closed
func NewLogMessageAggregator(parentLogger logger.Logger) (base.MultiSinkMessageReceiver, <-chan string) {
	output := make(chan string, 100)
	return &logMessageAggregator{
		logger:        parentLogger.WithField(defs.LabelComponent, "LogMessageAggregator"),
		outputChannel: output,
	}, output
}

func (recv *logMessageAggregator) NewSink(clientAddress string, clientNumber base.ClientNumber) base.MessageReceiverSink {
	return &logMessageAggregatorSink{
		logger:        base.NewSinkLogger(recv.logger, clientAddress, clientNumber),
		clientNumber:  clientNumber,
		outputChannel: recv.outputChannel,
	}
}

func (sess *logMessageAggregatorSink) Accept(value []byte) {
	sess.send(fmt.Sprintf("%d: %s", sess.clientNumber, util.LossyStringFromBytes(value)))
}

func (sess *logMessageAggregatorSink) Close() {
	sess.send(fmt.Sprintf("%d: closed", sess.clientNumber))
}

func (sess *logMessageAggregatorSink) send(s string) {
	select {
	case sess.outputChannel <- s:
		return
	case <-time.After(defs.TestReadTimeout):
		sess.logger.Errorf("BUG: timeout sending to channel: \"%s\"", s)
	}
}

// ReadMessage reads the next message from an aggregator channel, or returns "timeout"
func ReadMessage(ch <-chan string) string {
	select {
	case s := <-ch:
		return s
	case <-time.After(defs.TestReadTimeout):
		return "timeout"
	}
}
