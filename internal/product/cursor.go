package product

// Cursor walks a Range in index order, advancing the per-field digits like
// an odometer instead of re-decoding every index.
//
// A Cursor is not safe for concurrent use; give each worker its own.
//
//	cur := eng.Cursor(r)
//	for cur.Next() {
//	    buf = cur.AppendWord(buf[:0])
//	}
type Cursor struct {
	e       *Engine
	digits  []int
	index   uint64
	end     uint64
	started bool
}

// Cursor returns a cursor positioned before r.Start. The range is clamped
// to [0, Total()).
func (e *Engine) Cursor(r Range) *Cursor {
	if r.End > e.total {
		r.End = e.total
	}
	c := &Cursor{e: e, digits: make([]int, len(e.fields)), index: r.Start, end: r.End}
	if r.Start < r.End {
		i := r.Start
		for f := len(e.fields) - 1; f >= 0; f-- {
			size := uint64(len(e.fields[f]))
			c.digits[f] = int(i % size)
			i /= size
		}
	}
	return c
}

// Next advances to the next index and reports whether one is available.
func (c *Cursor) Next() bool {
	if !c.started {
		c.started = true
		return c.index < c.end
	}
	if c.index >= c.end {
		return false
	}
	c.index++
	if c.index >= c.end {
		return false
	}
	for f := len(c.digits) - 1; f >= 0; f-- {
		c.digits[f]++
		if c.digits[f] < len(c.e.fields[f]) {
			break
		}
		c.digits[f] = 0
	}
	return true
}

// Index returns the current combination index.
func (c *Cursor) Index() uint64 { return c.index }

// AppendWord appends the concatenated current combination to dst.
func (c *Cursor) AppendWord(dst []byte) []byte {
	for f, d := range c.digits {
		dst = append(dst, c.e.fields[f][d]...)
	}
	return dst
}
