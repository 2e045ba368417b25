// Package sink provides the destinations generated words are written to.
//
// A Sink receives one word per call. Implementations are not required to be
// safe for concurrent use: the generator serializes all calls. A run ends
// with Commit (every word was written) or Abort (the run failed and partial
// output must not be presented as a wordlist). A failed Commit is followed
// by Abort, which must then be safe to call.
package sink

import (
	"bufio"
	"io"
)

// Sink is a destination for generated words.
type Sink interface {
	// Write emits the word for combination index. word is only valid for
	// the duration of the call.
	Write(index uint64, word []byte) error

	// Commit makes the output final.
	Commit() error

	// Abort discards what can be discarded and releases resources.
	Abort() error
}

const defaultBufSize = 64 * 1024

// Stream writes newline-terminated words to an io.Writer.
// Abort cannot retract bytes that were already flushed.
type Stream struct {
	bw *bufio.Writer
}

var _ Sink = (*Stream)(nil)

// NewStream wraps w in a buffered stream sink.
func NewStream(w io.Writer) *Stream {
	return &Stream{bw: bufio.NewWriterSize(w, defaultBufSize)}
}

// Write buffers word followed by a newline.
func (s *Stream) Write(_ uint64, word []byte) error {
	if _, err := s.bw.Write(word); err != nil {
		return err
	}
	return s.bw.WriteByte('\n')
}

// Commit flushes buffered words.
func (s *Stream) Commit() error {
	return s.bw.Flush()
}

// Abort drops buffered words.
func (s *Stream) Abort() error {
	s.bw.Reset(io.Discard)
	return nil
}
