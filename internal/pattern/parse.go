package pattern

import (
	"fmt"
	"strconv"
	"unicode"
)

// maxRepeat bounds explicit repetition counts, matching the limit Go's
// regexp package enforces.
const maxRepeat = 1000

// Parse parses expr into a pattern tree without expanding it.
func Parse(expr string) (*Node, error) {
	p := &parser{expr: expr, src: []rune(expr)}
	n, err := p.parseAlternate()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		// parseAlternate only stops early on an unmatched ')'.
		return nil, p.invalid(p.pos, "unexpected )")
	}
	return n, nil
}

type parser struct {
	expr  string
	src   []rune
	pos   int
	depth int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune { return p.src[p.pos] }

func (p *parser) next() rune {
	r := p.src[p.pos]
	p.pos++
	return r
}

func (p *parser) invalid(pos int, format string, args ...any) error {
	return &Error{Code: ErrCodeInvalidPattern, Expr: p.expr, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) unbounded(pos int, format string, args ...any) error {
	return &Error{Code: ErrCodeUnboundedPattern, Expr: p.expr, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// parseAlternate parses branch ('|' branch)*.
func (p *parser) parseAlternate() (*Node, error) {
	var branches []*Node
	for {
		branch, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
		if p.eof() || p.peek() != '|' {
			break
		}
		p.next()
	}
	if len(branches) == 1 {
		return branches[0], nil
	}
	return &Node{Kind: KindAlternate, Subs: branches}, nil
}

// parseConcat parses a run of repeated atoms up to '|', ')' or the end.
func (p *parser) parseConcat() (*Node, error) {
	var items []*Node
	for !p.eof() {
		r := p.peek()
		if r == '|' || r == ')' {
			break
		}
		item, err := p.parseRepeat()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	switch len(items) {
	case 0:
		return &Node{Kind: KindEmpty}, nil
	case 1:
		return items[0], nil
	}
	return &Node{Kind: KindConcat, Subs: items}, nil
}

func (p *parser) parseRepeat() (*Node, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.eof() {
		return atom, nil
	}

	start := p.pos
	var lo, hi int
	switch p.peek() {
	case '?':
		p.next()
		lo, hi = 0, 1
	case '*', '+':
		return nil, p.unbounded(start, "repetition %q has no upper bound", p.peek())
	case '{':
		lo, hi, err = p.parseBounds()
		if err != nil {
			return nil, err
		}
	default:
		return atom, nil
	}

	if !p.eof() && isQuantifier(p.peek()) {
		return nil, p.invalid(p.pos, "nested repetition operator %q", p.peek())
	}
	return &Node{Kind: KindRepeat, Subs: []*Node{atom}, Min: lo, Max: hi}, nil
}

// parseBounds parses {n} or {n,m}; the caller has seen '{'.
func (p *parser) parseBounds() (int, int, error) {
	start := p.pos
	p.next()
	lo, ok := p.parseInt()
	if !ok {
		return 0, 0, p.invalid(start, "invalid repetition count")
	}
	hi := lo
	if !p.eof() && p.peek() == ',' {
		p.next()
		if !p.eof() && p.peek() == '}' {
			return 0, 0, p.unbounded(start, "repetition {%d,} has no upper bound", lo)
		}
		if hi, ok = p.parseInt(); !ok {
			return 0, 0, p.invalid(start, "invalid repetition count")
		}
	}
	if p.eof() || p.peek() != '}' {
		return 0, 0, p.invalid(start, "missing closing }")
	}
	p.next()
	if lo > hi {
		return 0, 0, p.invalid(start, "invalid repetition range {%d,%d}", lo, hi)
	}
	if hi > maxRepeat {
		return 0, 0, p.invalid(start, "repetition count %d exceeds %d", hi, maxRepeat)
	}
	return lo, hi, nil
}

func (p *parser) parseInt() (int, bool) {
	start := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.next()
	}
	if start == p.pos || p.pos-start > 4 {
		return 0, false
	}
	n, err := strconv.Atoi(string(p.src[start:p.pos]))
	return n, err == nil
}

func (p *parser) parseAtom() (*Node, error) {
	start := p.pos
	r := p.next()
	switch r {
	case '(':
		return p.parseGroup(start)
	case '[':
		return p.parseClass(start)
	case '\\':
		runes, err := p.parseEscape(start)
		if err != nil {
			return nil, err
		}
		if len(runes) == 1 {
			return &Node{Kind: KindLiteral, Runes: runes}, nil
		}
		return &Node{Kind: KindClass, Runes: runes}, nil
	case '.':
		return nil, p.unbounded(start, "'.' matches any character")
	case '^':
		if start != 0 {
			return nil, p.invalid(start, "'^' is only allowed at the start of the pattern")
		}
		return &Node{Kind: KindEmpty}, nil
	case '$':
		if !p.eof() {
			return nil, p.invalid(start, "'$' is only allowed at the end of the pattern")
		}
		return &Node{Kind: KindEmpty}, nil
	case '?', '*', '+', '{':
		return nil, p.invalid(start, "missing argument to repetition operator %q", r)
	case ']', '}':
		return nil, p.invalid(start, "unexpected %q", r)
	}
	return &Node{Kind: KindLiteral, Runes: []rune{r}}, nil
}

// parseGroup parses the body of (...) or (?:...); the caller has seen '('.
func (p *parser) parseGroup(start int) (*Node, error) {
	if !p.eof() && p.peek() == '?' {
		if p.pos+1 < len(p.src) && p.src[p.pos+1] == ':' {
			p.pos += 2
		} else {
			return nil, p.invalid(start, "unsupported group flags")
		}
	}
	p.depth++
	if p.depth > maxRepeat {
		return nil, p.invalid(start, "groups nested too deeply")
	}
	body, err := p.parseAlternate()
	if err != nil {
		return nil, err
	}
	p.depth--
	if p.eof() || p.peek() != ')' {
		return nil, p.invalid(start, "missing closing )")
	}
	p.next()
	return &Node{Kind: KindGroup, Subs: []*Node{body}}, nil
}

// parseClass parses [...]; the caller has seen '['.
func (p *parser) parseClass(start int) (*Node, error) {
	if !p.eof() && p.peek() == '^' {
		return nil, p.unbounded(start, "negated character class")
	}
	var members []rune
	first := true
	for {
		if p.eof() {
			return nil, p.invalid(start, "missing closing ]")
		}
		if p.peek() == ']' && !first {
			p.next()
			break
		}
		first = false

		itemPos := p.pos
		lo, set, err := p.parseClassItem()
		if err != nil {
			return nil, err
		}
		if set != nil {
			members = append(members, set...)
			continue
		}

		// A '-' before ']' is a literal.
		if p.pos+1 < len(p.src) && p.peek() == '-' && p.src[p.pos+1] != ']' {
			p.next()
			hi, hiSet, err := p.parseClassItem()
			if err != nil {
				return nil, err
			}
			if hiSet != nil {
				return nil, p.invalid(itemPos, "invalid character class range")
			}
			if lo > hi {
				return nil, p.invalid(itemPos, "invalid character class range %q-%q", lo, hi)
			}
			for c := lo; c <= hi; c++ {
				members = append(members, c)
			}
			continue
		}
		members = append(members, lo)
	}
	return &Node{Kind: KindClass, Runes: dedupeRunes(members)}, nil
}

// parseClassItem returns either a single rune or, for class escapes such
// as \d, the set of runes it stands for.
func (p *parser) parseClassItem() (rune, []rune, error) {
	start := p.pos
	r := p.next()
	if r != '\\' {
		return r, nil, nil
	}
	runes, err := p.parseEscape(start)
	if err != nil {
		return 0, nil, err
	}
	if len(runes) == 1 && !isClassEscape(p.src[start+1]) {
		return runes[0], nil, nil
	}
	return 0, runes, nil
}

// parseEscape parses the character after '\'; the caller has consumed it.
func (p *parser) parseEscape(start int) ([]rune, error) {
	if p.eof() {
		return nil, p.invalid(start, "trailing backslash")
	}
	r := p.next()
	switch r {
	case 'd':
		return runeRange('0', '9'), nil
	case 'w':
		w := runeRange('0', '9')
		w = append(w, runeRange('A', 'Z')...)
		w = append(w, '_')
		return append(w, runeRange('a', 'z')...), nil
	case 's':
		return []rune{'\t', '\n', '\f', '\r', ' '}, nil
	case 'D', 'W', 'S':
		return nil, p.unbounded(start, "negated class escape \\%c", r)
	case 'n':
		return []rune{'\n'}, nil
	case 't':
		return []rune{'\t'}, nil
	case 'r':
		return []rune{'\r'}, nil
	case 'f':
		return []rune{'\f'}, nil
	case 'v':
		return []rune{'\v'}, nil
	case 'a':
		return []rune{'\a'}, nil
	case 'x':
		c, err := p.parseHex(start)
		if err != nil {
			return nil, err
		}
		return []rune{c}, nil
	}
	if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
		return nil, p.invalid(start, "unknown escape \\%c", r)
	}
	return []rune{r}, nil
}

// parseHex parses HH or {H...} after \x.
func (p *parser) parseHex(start int) (rune, error) {
	var digits []rune
	if !p.eof() && p.peek() == '{' {
		p.next()
		for !p.eof() && p.peek() != '}' {
			digits = append(digits, p.next())
		}
		if p.eof() {
			return 0, p.invalid(start, "missing closing } in hex escape")
		}
		p.next()
	} else {
		for i := 0; i < 2 && !p.eof(); i++ {
			digits = append(digits, p.next())
		}
		if len(digits) != 2 {
			return 0, p.invalid(start, "short hex escape")
		}
	}
	v, err := strconv.ParseUint(string(digits), 16, 32)
	if err != nil || len(digits) == 0 || v > unicode.MaxRune {
		return 0, p.invalid(start, "invalid hex escape")
	}
	return rune(v), nil
}

func isQuantifier(r rune) bool {
	return r == '?' || r == '*' || r == '+' || r == '{'
}

func isClassEscape(r rune) bool {
	return r == 'd' || r == 'w' || r == 's'
}

func runeRange(lo, hi rune) []rune {
	out := make([]rune, 0, hi-lo+1)
	for c := lo; c <= hi; c++ {
		out = append(out, c)
	}
	return out
}

func dedupeRunes(in []rune) []rune {
	seen := make(map[rune]struct{}, len(in))
	out := in[:0]
	for _, r := range in {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
