// Package progress renders generation progress as a single, redrawn
// terminal line.
package progress

import (
	"fmt"
	"io"
	"sync"

	bar "github.com/charmbracelet/bubbles/progress"
)

// DefaultWidth is the bar width in cells.
const DefaultWidth = 40

// Bar draws "<bar> written/total" on w, redrawing in place with '\r'.
// It implements generate.ProgressReporter.
type Bar struct {
	mu       sync.Mutex
	w        io.Writer
	total    uint64
	model    bar.Model
	last     uint64
	drawn    bool
	finished bool
}

// Option configures a Bar.
type Option func(*Bar)

// WithWidth sets the bar width in cells.
func WithWidth(width int) Option {
	return func(b *Bar) { b.model.Width = width }
}

// WithoutColor renders the bar with a plain fill.
func WithoutColor() Option {
	return func(b *Bar) {
		width := b.model.Width
		b.model = bar.New(bar.WithSolidFill(""), bar.WithWidth(width), bar.WithFillCharacters('#', '.'))
	}
}

// New creates a bar for a run of total words.
func New(w io.Writer, total uint64, opts ...Option) *Bar {
	b := &Bar{
		w:     w,
		total: total,
		model: bar.New(bar.WithDefaultGradient(), bar.WithWidth(DefaultWidth)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Fraction returns written/total clamped to [0, 1].
func (b *Bar) Fraction(written uint64) float64 {
	if b.total == 0 || written >= b.total {
		return 1
	}
	return float64(written) / float64(b.total)
}

// Update redraws the bar if the count changed.
func (b *Bar) Update(written uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished || (b.drawn && written == b.last) {
		return
	}
	b.draw(written)
}

// Finish draws the final state and ends the line.
func (b *Bar) Finish(written uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return
	}
	b.draw(written)
	b.finished = true
	fmt.Fprintln(b.w)
}

func (b *Bar) draw(written uint64) {
	b.last = written
	b.drawn = true
	fmt.Fprintf(b.w, "\r%s %d/%d", b.model.ViewAs(b.Fraction(written)), written, b.total)
}
