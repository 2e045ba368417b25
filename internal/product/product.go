// Package product enumerates the cartesian product of a field set by
// mixed-radix decoding of combination indices.
//
// Index i in [0, Total()) decodes to one combination with the rightmost
// field varying fastest, the order of an odometer. Decoding is pure, so any
// set of disjoint index ranges can be processed concurrently.
package product

import (
	"errors"
	"fmt"
	"iter"
	"math/bits"

	"github.com/roach88/crunch/internal/field"
)

// Error codes for product construction and decoding.
const (
	ErrCodeEmptyField    = "EMPTY_FIELD"
	ErrCodeCountOverflow = "COUNT_OVERFLOW"
	ErrCodeOutOfRange    = "INDEX_OUT_OF_RANGE"
)

// Error reports an unusable field set or index.
type Error struct {
	Code    string
	Field   int // 1-based field position, 0 when not field specific
	Message string
}

func (e *Error) Error() string {
	if e.Field > 0 {
		return fmt.Sprintf("%s: field %d: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the error category.
func (e *Error) ErrorCode() string {
	return e.Code
}

// IsEmptyField reports whether err is an EMPTY_FIELD error.
func IsEmptyField(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == ErrCodeEmptyField
}

// IsCountOverflow reports whether err is a COUNT_OVERFLOW error.
func IsCountOverflow(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == ErrCodeCountOverflow
}

// Engine decodes combination indices against a fixed field set.
// It is immutable and safe for concurrent use.
type Engine struct {
	fields field.Set
	total  uint64
}

// New validates set and computes the total combination count.
//
// Every field must have at least one candidate, and the product of the
// list sizes must fit in a uint64. An empty set has exactly one (empty)
// combination.
func New(set field.Set) (*Engine, error) {
	total := uint64(1)
	for i, list := range set {
		if len(list) == 0 {
			return nil, &Error{Code: ErrCodeEmptyField, Field: i + 1, Message: "field has no candidates"}
		}
		hi, lo := bits.Mul64(total, uint64(len(list)))
		if hi != 0 {
			return nil, &Error{
				Code:    ErrCodeCountOverflow,
				Field:   i + 1,
				Message: "combination count exceeds 2^64-1",
			}
		}
		total = lo
	}
	return &Engine{fields: set, total: total}, nil
}

// Total returns the number of combinations.
func (e *Engine) Total() uint64 { return e.total }

// Fields returns the number of fields.
func (e *Engine) Fields() int { return len(e.fields) }

// Sizes returns the candidate count of each field.
func (e *Engine) Sizes() []int { return e.fields.Sizes() }

// Decode returns the combination at index i, one candidate per field.
func (e *Engine) Decode(i uint64) ([]string, error) {
	if i >= e.total {
		return nil, &Error{Code: ErrCodeOutOfRange, Message: fmt.Sprintf("index %d not in [0, %d)", i, e.total)}
	}
	out := make([]string, len(e.fields))
	for f := len(e.fields) - 1; f >= 0; f-- {
		size := uint64(len(e.fields[f]))
		out[f] = e.fields[f][i%size]
		i /= size
	}
	return out, nil
}

// AppendWord appends the concatenated combination at index i to dst.
// It panics if i is out of range.
func (e *Engine) AppendWord(dst []byte, i uint64) []byte {
	if i >= e.total {
		panic(fmt.Sprintf("product: index %d not in [0, %d)", i, e.total))
	}
	return e.Cursor(Range{Start: i, End: i + 1}).AppendWord(dst)
}

// Range is the half-open index interval [Start, End).
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of indices in r.
func (r Range) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Chunks yields consecutive ranges of at most size indices covering
// [0, Total()) exactly once. A size of 0 is treated as 1.
func (e *Engine) Chunks(size uint64) iter.Seq[Range] {
	if size == 0 {
		size = 1
	}
	return func(yield func(Range) bool) {
		for start := uint64(0); start < e.total; {
			end := e.total
			if e.total-start > size {
				end = start + size
			}
			if !yield(Range{Start: start, End: end}) {
				return
			}
			start = end
		}
	}
}

// Partition splits [0, Total()) into at most n contiguous ranges whose
// lengths differ by at most one.
func (e *Engine) Partition(n int) []Range {
	if n <= 0 {
		n = 1
	}
	parts := uint64(n)
	if parts > e.total {
		parts = e.total
	}
	base, extra := e.total/parts, e.total%parts
	out := make([]Range, 0, parts)
	start := uint64(0)
	for p := uint64(0); p < parts; p++ {
		size := base
		if p < extra {
			size++
		}
		out = append(out, Range{Start: start, End: start + size})
		start += size
	}
	return out
}
