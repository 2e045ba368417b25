package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/crunch/internal/field"
	"github.com/roach88/crunch/internal/pattern"
)

const (
	// ErrCodeSinkWriteFailed identifies an I/O failure while emitting words.
	ErrCodeSinkWriteFailed = "SINK_WRITE_FAILED"

	// ErrCodeInterrupted reports a run stopped by cancellation.
	ErrCodeInterrupted = "INTERRUPTED"
)

// SinkWriteError reports a failed sink operation.
type SinkWriteError struct {
	// Op is "open", "write" or "commit".
	Op string

	// Index is the combination being written when Op is "write".
	Index uint64

	Err error
}

func (e *SinkWriteError) Error() string {
	if e.Op == "write" {
		return fmt.Sprintf("%s: write of combination %d: %v", ErrCodeSinkWriteFailed, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrCodeSinkWriteFailed, e.Op, e.Err)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Err
}

// ErrorCode returns SINK_WRITE_FAILED.
func (e *SinkWriteError) ErrorCode() string {
	return ErrCodeSinkWriteFailed
}

// IsSinkWriteError reports whether err is (or wraps) a SinkWriteError.
func IsSinkWriteError(err error) bool {
	var se *SinkWriteError
	return errors.As(err, &se)
}

// ErrorCode returns the code of the most specific error in err's chain, or
// "" when nothing in the chain carries one. Pattern errors are wrapped by
// field errors, which configuration errors wrap in turn, so the innermost
// cause is checked first.
func ErrorCode(err error) string {
	var pe *pattern.Error
	if errors.As(err, &pe) {
		return pe.ErrorCode()
	}
	var fe *field.Error
	if errors.As(err, &fe) {
		return fe.ErrorCode()
	}
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	if errors.Is(err, context.Canceled) {
		return ErrCodeInterrupted
	}
	return ""
}
