package base

import (
	"github.com/relex/gotils/channels"
)

// LogInput represents a receiving endpoint, e.g. a TCP/Syslog input
// It integrates listener, parser and reporters of decoded messages
type LogInput interface {
	// Launch starts accepting connections in background
	Launch()

	// Stopped is signaled after the input and all of its connections have ended
	Stopped() channels.Awaitable

	// Address returns the bound address including the actual port
	Address() string
}
