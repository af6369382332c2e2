package sysloginput

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/syslog-tools/defs"
	"github.com/relex/syslog-tools/syslogprotocol"
)

// ConsoleReporter prints decoded messages one per line, colored by severity if enabled
//
// Printing is done by a background goroutine; messages are dropped when the queue is full so that connections never
// block on a slow console.
type ConsoleReporter struct {
	logger  logger.Logger
	output  io.Writer
	queue   chan consoleLine
	colors  []*color.Color // by severity
	unknown *color.Color   // for messages without priority
	stopped *channels.SignalAwaitable
}

type consoleLine struct {
	peer string
	msg  syslogprotocol.Message
}

// IsColorTerminal checks whether the file is a terminal which supports colors
func IsColorTerminal(file *os.File) bool {
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// NewConsoleReporter creates a ConsoleReporter and launches the printing goroutine
func NewConsoleReporter(parentLogger logger.Logger, output io.Writer, colored bool) *ConsoleReporter {
	newColor := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	rep := &ConsoleReporter{
		logger: parentLogger.WithField(defs.LabelComponent, "ConsoleReporter"),
		output: output,
		queue:  make(chan consoleLine, defs.ConsoleEchoChannelSize),
		colors: []*color.Color{
			newColor(color.FgHiRed, color.Bold), // emergency
			newColor(color.FgHiRed, color.Bold), // alert
			newColor(color.FgRed, color.Bold),   // critical
			newColor(color.FgRed),               // error
			newColor(color.FgYellow),            // warning
			newColor(color.FgCyan),              // notice
			newColor(color.FgGreen),             // informational
			newColor(color.Faint),               // debug
		},
		unknown: newColor(color.FgMagenta),
		stopped: channels.NewSignalAwaitable(),
	}
	go rep.run()
	return rep
}

// Report queues a message for printing, or drops it if the queue is full
func (rep *ConsoleReporter) Report(peer string, msg syslogprotocol.Message) {
	select {
	case rep.queue <- consoleLine{peer: peer, msg: msg}:
	default:
		rep.logger.Warn("console queue is full, message dropped from ", peer)
	}
}

// Close stops accepting messages and waits until all queued messages are printed
//
// Report must not be called after Close
func (rep *ConsoleReporter) Close() {
	close(rep.queue)
	rep.stopped.WaitForever()
}

func (rep *ConsoleReporter) run() {
	defer rep.stopped.Signal()
	for line := range rep.queue {
		c := rep.unknown
		if line.msg.HasPriority && line.msg.Severity.Valid() {
			c = rep.colors[line.msg.Severity]
		}
		if _, err := fmt.Fprintf(rep.output, "%s %s\n", line.peer, c.Sprint(line.msg.String())); err != nil {
			rep.logger.Warn("failed to print: ", err)
		}
	}
}
