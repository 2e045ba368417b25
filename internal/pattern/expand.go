package pattern

import (
	"fmt"
	"strings"
)

// Defaults for the expansion ceilings. Both apply to every intermediate
// list as well as the final one.
const (
	DefaultMaxCandidates = 1 << 20
	DefaultMaxBytes      = 16 << 20
)

// Options configures expansion.
type Options struct {
	// MaxCandidates limits the number of strings any sub-expression may
	// expand to. Zero means DefaultMaxCandidates.
	MaxCandidates int

	// MaxBytes limits the summed length of the strings any sub-expression
	// may expand to. Zero means DefaultMaxBytes.
	MaxBytes int
}

// Expand returns every string matched by expr, deduplicated, in expansion
// order. See the package documentation for the ordering rules.
func Expand(expr string) ([]string, error) {
	return ExpandWith(expr, Options{})
}

// ExpandWith is Expand with explicit options.
func ExpandWith(expr string, opts Options) ([]string, error) {
	root, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	limit := opts.MaxCandidates
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	x := &expander{expr: expr, limit: limit, maxBytes: maxBytes}
	return x.expand(root)
}

type expander struct {
	expr     string
	limit    int
	maxBytes int
}

func (x *expander) tooLarge(n int) error {
	return &Error{
		Code:    ErrCodeUnboundedPattern,
		Expr:    x.expr,
		Pos:     -1,
		Message: fmt.Sprintf("expansion exceeds %d candidates (needs %d)", x.limit, n),
	}
}

func (x *expander) tooLong(n int) error {
	return &Error{
		Code:    ErrCodeUnboundedPattern,
		Expr:    x.expr,
		Pos:     -1,
		Message: fmt.Sprintf("expansion exceeds %d bytes (needs at least %d)", x.maxBytes, n),
	}
}

// checkBytes adds n to *total and fails once the ceiling is passed.
func (x *expander) checkBytes(total *int, n int) error {
	*total += n
	if *total > x.maxBytes {
		return x.tooLong(*total)
	}
	return nil
}

func (x *expander) expand(n *Node) ([]string, error) {
	switch n.Kind {
	case KindEmpty:
		return []string{""}, nil
	case KindLiteral:
		lit := string(n.Runes)
		if len(lit) > x.maxBytes {
			return nil, x.tooLong(len(lit))
		}
		return []string{lit}, nil
	case KindClass:
		if len(n.Runes) > x.limit {
			return nil, x.tooLarge(len(n.Runes))
		}
		out := make([]string, len(n.Runes))
		for i, r := range n.Runes {
			out[i] = string(r)
		}
		return out, nil
	case KindGroup:
		return x.expand(n.Subs[0])
	case KindConcat:
		acc := []string{""}
		for _, sub := range n.Subs {
			part, err := x.expand(sub)
			if err != nil {
				return nil, err
			}
			if acc, err = x.cross(acc, part); err != nil {
				return nil, err
			}
		}
		return acc, nil
	case KindAlternate:
		var out []string
		size := 0
		for _, sub := range n.Subs {
			part, err := x.expand(sub)
			if err != nil {
				return nil, err
			}
			out = append(out, part...)
			if len(out) > x.limit {
				return nil, x.tooLarge(len(out))
			}
			if err := x.checkBytes(&size, byteLen(part)); err != nil {
				return nil, err
			}
		}
		return dedupe(out), nil
	case KindRepeat:
		return x.repeat(n)
	}
	return nil, &Error{Code: ErrCodeInvalidPattern, Expr: x.expr, Pos: -1, Message: fmt.Sprintf("unknown node kind %d", n.Kind)}
}

// repeat yields sub^k for k = Min..Max, in increasing k.
func (x *expander) repeat(n *Node) ([]string, error) {
	base, err := x.expand(n.Subs[0])
	if err != nil {
		return nil, err
	}
	power := []string{""}
	for k := 0; k < n.Min; k++ {
		if power, err = x.cross(power, base); err != nil {
			return nil, err
		}
	}
	out := append([]string(nil), power...)
	size := byteLen(out)
	for k := n.Min; k < n.Max; k++ {
		if power, err = x.cross(power, base); err != nil {
			return nil, err
		}
		out = append(out, power...)
		if len(out) > x.limit {
			return nil, x.tooLarge(len(out))
		}
		if err := x.checkBytes(&size, byteLen(power)); err != nil {
			return nil, err
		}
		out = dedupe(out)
	}
	return dedupe(out), nil
}

// cross joins every left string with every right string, left slowest.
func (x *expander) cross(left, right []string) ([]string, error) {
	n := len(left) * len(right)
	if n > x.limit {
		return nil, x.tooLarge(n)
	}
	// Every left string appears len(right) times and vice versa.
	size := 0
	if err := x.checkBytes(&size, byteLen(left)*len(right)); err != nil {
		return nil, err
	}
	if err := x.checkBytes(&size, byteLen(right)*len(left)); err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	var b strings.Builder
	for _, l := range left {
		for _, r := range right {
			b.Reset()
			b.WriteString(l)
			b.WriteString(r)
			out = append(out, b.String())
		}
	}
	return dedupe(out), nil
}

func byteLen(list []string) int {
	n := 0
	for _, s := range list {
		n += len(s)
	}
	return n
}

// dedupe drops repeated strings, keeping first occurrences in place.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
