package pattern

import (
	"errors"
	"fmt"
)

// Code categorizes pattern errors.
type Code string

const (
	// ErrCodeInvalidPattern indicates a syntax error in the expression.
	ErrCodeInvalidPattern Code = "INVALID_PATTERN"

	// ErrCodeUnboundedPattern indicates the expression matches an infinite
	// or unenumerable language, or exceeds the expansion limit.
	ErrCodeUnboundedPattern Code = "UNBOUNDED_PATTERN"
)

// Error reports a pattern that cannot be expanded.
type Error struct {
	Code    Code
	Expr    string
	Pos     int // rune offset into Expr, -1 when not tied to a position
	Message string
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s: %s at offset %d in %q", e.Code, e.Message, e.Pos, e.Expr)
	}
	return fmt.Sprintf("%s: %s in %q", e.Code, e.Message, e.Expr)
}

// ErrorCode returns the error category as a string.
func (e *Error) ErrorCode() string {
	return string(e.Code)
}

// IsInvalid reports whether err is (or wraps) an INVALID_PATTERN error.
func IsInvalid(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeInvalidPattern
	}
	return false
}

// IsUnbounded reports whether err is (or wraps) an UNBOUNDED_PATTERN error.
func IsUnbounded(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeUnboundedPattern
	}
	return false
}
