package field

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/crunch/internal/pattern"
)

// Separator and Escape drive literal tokenization.
const (
	Separator = ','
	Escape    = '\\'
)

// Spec is a field specification: either Literal or Pattern.
//
// The interface is sealed; Parse handles every implementation and rejects
// anything else as malformed.
type Spec interface {
	isSpec()
}

// Literal is a separator-delimited list of candidates.
type Literal struct {
	Raw string
}

// Pattern is a bounded pattern expression whose expansion is the list of
// candidates.
type Pattern struct {
	Expr string
}

func (Literal) isSpec() {}
func (Pattern) isSpec() {}

// CandidateList is the ordered list of values one field can take.
type CandidateList []string

// Set is the ordered list of candidate lists, one per field.
// It is built once and shared read-only during generation.
type Set []CandidateList

// Sizes returns the length of every candidate list.
func (s Set) Sizes() []int {
	sizes := make([]int, len(s))
	for i, list := range s {
		sizes[i] = len(list)
	}
	return sizes
}

// Form names a Unicode normalization form applied to candidates.
type Form string

const (
	FormNone Form = ""
	FormNFC  Form = "nfc"
	FormNFD  Form = "nfd"
	FormNFKC Form = "nfkc"
	FormNFKD Form = "nfkd"
)

// ParseForm validates a normalization form name. Matching is
// case-insensitive; "" and "none" both mean no normalization.
func ParseForm(s string) (Form, error) {
	switch f := Form(strings.ToLower(strings.TrimSpace(s))); f {
	case FormNone, "none":
		return FormNone, nil
	case FormNFC, FormNFD, FormNFKC, FormNFKD:
		return f, nil
	}
	return FormNone, fmt.Errorf("unknown normalization form %q (want nfc, nfd, nfkc, nfkd or none)", s)
}

func (f Form) normalizer() (norm.Form, bool) {
	switch f {
	case FormNFC:
		return norm.NFC, true
	case FormNFD:
		return norm.NFD, true
	case FormNFKC:
		return norm.NFKC, true
	case FormNFKD:
		return norm.NFKD, true
	}
	return 0, false
}

// Options configures a Parser.
type Options struct {
	// Normalize, when set, normalizes every candidate after parsing.
	Normalize Form

	// Pattern is passed through to pattern expansion.
	Pattern pattern.Options
}

// Parser turns specs into candidate lists.
type Parser struct {
	opts Options
}

// NewParser creates a parser with the given options.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Parse parses spec with default options.
func Parse(spec Spec) (CandidateList, error) {
	return NewParser(Options{}).Parse(spec)
}

// ParseAll parses specs with default options.
func ParseAll(specs []Spec) (Set, error) {
	return NewParser(Options{}).ParseAll(specs)
}

// Parse turns one spec into its candidate list.
func (p *Parser) Parse(spec Spec) (CandidateList, error) {
	var list CandidateList
	switch s := spec.(type) {
	case Literal:
		list = Tokenize(s.Raw)
	case *Literal:
		list = Tokenize(s.Raw)
	case Pattern:
		return p.expand(s.Expr)
	case *Pattern:
		return p.expand(s.Expr)
	case nil:
		return nil, &Error{Message: "missing field specification"}
	default:
		return nil, &Error{Message: fmt.Sprintf("unsupported field specification %T", spec)}
	}
	return p.normalize(list), nil
}

// ParseAll parses every spec in order, stopping at the first failure.
// Errors carry the 1-based field position.
func (p *Parser) ParseAll(specs []Spec) (Set, error) {
	set := make(Set, 0, len(specs))
	for i, spec := range specs {
		list, err := p.Parse(spec)
		if err != nil {
			if fe, ok := err.(*Error); ok {
				fe.Field = i + 1
				return nil, fe
			}
			return nil, &Error{Field: i + 1, Message: "parse failed", Err: err}
		}
		set = append(set, list)
	}
	return set, nil
}

func (p *Parser) expand(expr string) (CandidateList, error) {
	if expr == "" {
		return nil, &Error{Message: "empty pattern expression"}
	}
	out, err := pattern.ExpandWith(expr, p.opts.Pattern)
	if err != nil {
		return nil, &Error{Message: "pattern expansion failed", Err: err}
	}
	return p.normalize(out), nil
}

func (p *Parser) normalize(list CandidateList) CandidateList {
	form, ok := p.opts.Normalize.normalizer()
	if !ok {
		return list
	}
	for i, s := range list {
		list[i] = form.String(s)
	}
	return list
}

// Tokenize splits raw on unescaped Separator characters.
//
// Escape makes the next character literal, including Separator and Escape
// itself. A trailing Escape is dropped. The result always has at least one
// element and keeps empty tokens.
func Tokenize(raw string) CandidateList {
	var (
		tokens  CandidateList
		cur     strings.Builder
		escaped bool
	)
	for _, r := range raw {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == Escape:
			escaped = true
		case r == Separator:
			tokens = append(tokens, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(tokens, cur.String())
}
