package pattern

import (
	"strconv"
	"strings"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	// KindEmpty matches only the empty string.
	KindEmpty Kind = iota
	// KindLiteral matches a single rune (Runes[0]).
	KindLiteral
	// KindClass matches any one of Runes, in declared order.
	KindClass
	// KindConcat matches Subs in sequence.
	KindConcat
	// KindAlternate matches any one of Subs.
	KindAlternate
	// KindRepeat matches Subs[0] between Min and Max times.
	KindRepeat
	// KindGroup wraps Subs[0]; it only affects rendering.
	KindGroup
)

// Node is one element of a parsed pattern tree.
type Node struct {
	Kind  Kind
	Runes []rune
	Subs  []*Node
	Min   int
	Max   int
}

// String renders the node back into pattern syntax.
// The result parses to an equivalent tree.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.Kind {
	case KindEmpty:
	case KindLiteral:
		writeRune(b, n.Runes[0], false)
	case KindClass:
		b.WriteByte('[')
		for _, r := range n.Runes {
			writeRune(b, r, true)
		}
		b.WriteByte(']')
	case KindConcat:
		for _, sub := range n.Subs {
			sub.write(b)
		}
	case KindAlternate:
		for i, sub := range n.Subs {
			if i > 0 {
				b.WriteByte('|')
			}
			sub.write(b)
		}
	case KindGroup:
		b.WriteByte('(')
		n.Subs[0].write(b)
		b.WriteByte(')')
	case KindRepeat:
		sub := n.Subs[0]
		if sub.Kind == KindConcat || sub.Kind == KindAlternate || sub.Kind == KindRepeat || sub.Kind == KindEmpty {
			b.WriteString("(?:")
			sub.write(b)
			b.WriteByte(')')
		} else {
			sub.write(b)
		}
		b.WriteByte('{')
		b.WriteString(strconv.Itoa(n.Min))
		if n.Max != n.Min {
			b.WriteByte(',')
			b.WriteString(strconv.Itoa(n.Max))
		}
		b.WriteByte('}')
	}
}

func writeRune(b *strings.Builder, r rune, inClass bool) {
	switch r {
	case '\n':
		b.WriteString(`\n`)
		return
	case '\t':
		b.WriteString(`\t`)
		return
	case '\r':
		b.WriteString(`\r`)
		return
	case '\f':
		b.WriteString(`\f`)
		return
	case '\v':
		b.WriteString(`\v`)
		return
	case '\a':
		b.WriteString(`\a`)
		return
	}
	special := `\.[]()|?*+{}^$`
	if inClass {
		special = `\[]^-`
	}
	if strings.ContainsRune(special, r) {
		b.WriteByte('\\')
	}
	b.WriteRune(r)
}
