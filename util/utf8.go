package util

import (
	"unicode/utf8"
)

// LossyStringFromBytes converts bytes to a new string, replacing each invalid UTF-8 sequence by U+FFFD
//
// The conversion never fails and the input is not retained
func LossyStringFromBytes(buf []byte) string {
	if utf8.Valid(buf) {
		return string(buf)
	}
	out := make([]byte, 0, len(buf)+8)
	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && size <= 1 {
			out = utf8.AppendRune(out, utf8.RuneError)
		} else {
			out = append(out, buf[:size]...)
		}
		buf = buf[size:]
	}
	return string(out)
}

// TruncateForLogging cuts a raw message to the given length for inclusion in logs
func TruncateForLogging(buf []byte, maxLength int) string {
	if len(buf) > maxLength {
		return LossyStringFromBytes(buf[:maxLength]) + "..."
	}
	return LossyStringFromBytes(buf)
}
