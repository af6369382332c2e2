package base

import (
	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/defs"
)

// ClientNumber uniquely identifies an accepted connection within a listener
//
// Numbers are assigned sequentially from 1 and never reused during the lifetime of a listener
type ClientNumber uint64

// MultiSinkMessageReceiver receives raw syslog messages from a multi-source input, e.g. a TCP listener with different incoming connections
//
// For a TCP or TLS listener, there is a single MultiSinkMessageReceiver, and one MessageReceiverSink for each connection
type MultiSinkMessageReceiver interface {

	// NewSink creates a sink to receive raw messages from the connection identified by the given address and client number
	//
	// clientAddress is a descriptive string of address, e.g. "10.1.0.1:50001"
	NewSink(clientAddress string, clientNumber ClientNumber) MessageReceiverSink
}

// MessageReceiverSink receives raw messages from a single source, e.g. a client TCP connection
//
// A sink is used by exactly one goroutine; messages arrive in the order they were read
type MessageReceiverSink interface {

	// Accept receives a raw message from input
	//
	// The message slice is NOT usable after the function exits
	Accept(message []byte)

	// Close is called when the source feeding this sink is ended, after all Accept() calls
	Close()
}

// NewSinkLogger creates a derived logger for sinks created from MultiSinkMessageReceiver
func NewSinkLogger(parentLogger logger.Logger, clientAddress string, clientNumber ClientNumber) logger.Logger {
	return parentLogger.WithFields(logger.Fields{
		defs.LabelPart:         "sink",
		defs.LabelClient:       clientAddress,
		defs.LabelClientNumber: clientNumber,
	})
}
