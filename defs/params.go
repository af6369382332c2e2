package defs

import (
	"time"
)

var (
	// ListenerReadBufferSize defines the size in bytes of the per-connection read buffer.
	//
	// In chunk framing each successful read is one message, so the value is also the max size of a message.
	ListenerReadBufferSize = 16 * 1024

	// MaxLoggingMessageSize defines how many bytes of a raw message to include in debug logs
	MaxLoggingMessageSize = 200

	// AcceptRetryDelayMin is the initial delay after a failed accept() before trying again
	AcceptRetryDelayMin = 5 * time.Millisecond

	// AcceptRetryDelayMax caps the exponential delay between failed accept() calls
	AcceptRetryDelayMax = 1 * time.Second

	// ConsoleEchoChannelSize defines the queue length of the console echo before messages are dropped
	//
	// Logging sinks must never block connection handlers
	ConsoleEchoChannelSize = 1000

	// SenderConnectionTimeout is the timeout to establish outgoing TCP connections, not including TLS handshake
	SenderConnectionTimeout = 10 * time.Second

	// SenderWriteBufferSize is the size of the write buffer of stream senders, flushed after each message by the client
	SenderWriteBufferSize = 64 * 1024
)

// For testing and experiments
const (
	TestReadTimeout = 5 * time.Second
)
