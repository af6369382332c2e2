package tcplistener

import (
	"bytes"
	"io"
)

type ioReader func(p []byte) (n int, err error)
type messageConsumer func(s []byte)

// messageReader reads from a connection into its own buffer and passes messages to the consumer
//
// The slice passed to the consumer is only valid during the call
type messageReader interface {
	// Read reads once and consumes any complete messages, returns io.EOF or network error when the connection ends
	Read() error

	// FlushAll consumes whatever remains buffered, to be called after the last Read
	FlushAll()
}

func newMessageReader(framing Framing, read ioReader, bufferSize int, consume messageConsumer) messageReader {
	if framing == FramingNewline {
		return &lineReader{
			readInput: read,
			consume:   consume,
			buffer:    make([]byte, bufferSize),
		}
	}
	return &chunkReader{
		readInput: read,
		consume:   consume,
		buffer:    make([]byte, bufferSize),
	}
}

// chunkReader treats every successful read as exactly one message
type chunkReader struct {
	readInput ioReader
	consume   messageConsumer
	buffer    []byte
}

func (cr *chunkReader) Read() error {
	n, err := cr.readInput(cr.buffer)
	if n > 0 {
		cr.consume(cr.buffer[:n])
	}
	if n == 0 && err == nil {
		return io.EOF // zero-length read ends the connection
	}
	return err
}

func (cr *chunkReader) FlushAll() {
}

// lineReader splits input by LF and keeps incomplete lines on buffer for the next read
//
// A line longer than the buffer is cut and consumed as one message when the buffer is full
type lineReader struct {
	readInput    ioReader
	consume      messageConsumer
	buffer       []byte
	offsetAppend int // point to end of buffered bytes, which never contain LF
}

func (lr *lineReader) Read() error {
	n, err := lr.readInput(lr.buffer[lr.offsetAppend:])
	if n > 0 {
		lr.processBuffer(lr.offsetAppend + n)
	}
	if n == 0 && err == nil {
		return io.EOF
	}
	return err
}

func (lr *lineReader) FlushAll() {
	if lr.offsetAppend > 0 {
		lr.consumeLine(lr.buffer[:lr.offsetAppend])
	}
	lr.offsetAppend = 0
}

func (lr *lineReader) processBuffer(bufferEnd int) {
	buffer := lr.buffer[:bufferEnd]
	lineStart := 0
	searchStart := lr.offsetAppend
	for {
		nextEndRel := bytes.IndexByte(buffer[searchStart:], '\n')
		if nextEndRel == -1 {
			break
		}
		lineEnd := searchStart + nextEndRel
		lr.consumeLine(buffer[lineStart:lineEnd])
		lineStart = lineEnd + 1
		searchStart = lineStart
	}
	remaining := buffer[lineStart:]
	if len(remaining) == len(lr.buffer) {
		lr.consumeLine(remaining)
		lr.offsetAppend = 0
		return
	}
	// relocate unfinished line to the beginning
	lr.offsetAppend = copy(lr.buffer, remaining)
}

func (lr *lineReader) consumeLine(line []byte) {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	if len(line) > 0 {
		lr.consume(line)
	}
}
