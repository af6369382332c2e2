package base

import (
	"github.com/relex/gotils/channels"
)

// LogListener represents a network endpoint accepting syslog connections
//
// The output is sent to a MultiSinkMessageReceiver passed during construction.
// LogListener always works in background as one or more goroutines
type LogListener interface {
	// Start launches the accept loop in background
	Start()

	// Stopped is signaled after the listener and all of its connections have ended
	Stopped() channels.Awaitable
}
