package field

import (
	"errors"
	"fmt"
)

// ErrCodeMalformedField identifies a field that cannot be turned into a
// candidate list.
const ErrCodeMalformedField = "MALFORMED_FIELD"

// Error reports a field that failed to parse.
//
// Pattern failures are wrapped: errors.As against *pattern.Error still
// finds the INVALID_PATTERN or UNBOUNDED_PATTERN cause.
type Error struct {
	// Field is the 1-based position of the field, 0 when unknown.
	Field   int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Field > 0 {
		return fmt.Sprintf("%s: field %d: %s", ErrCodeMalformedField, e.Field, msg)
	}
	return fmt.Sprintf("%s: %s", ErrCodeMalformedField, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns MALFORMED_FIELD.
func (e *Error) ErrorCode() string {
	return ErrCodeMalformedField
}

// IsMalformed reports whether err is (or wraps) a field error.
func IsMalformed(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}
