// Package delay manages the per-filter delay memory of the recursive kernels.
package delay

// Line is a grow-only buffer of delay samples owned by exactly one filter.
//
// The backing array is reallocated only when a larger size is requested and is
// never shrunk, so a filter whose order changes back and forth does not churn
// memory inside a per-sample loop. Out-of-memory is fatal in the Go runtime;
// there is no recovery path.
type Line struct {
	buf  []float64
	size int
}

// EnsureCapacity makes the active window exactly n samples long.
// If the buffer is nil or smaller than n, a new zeroed buffer of exactly n
// samples replaces it and EnsureCapacity reports true. Otherwise the existing
// allocation is kept and the call reports false; callers that change layout
// must Zero the window themselves.
func (l *Line) EnsureCapacity(n int) bool {
	if n < 0 {
		n = 0
	}
	if l.buf == nil || n > len(l.buf) {
		l.buf = make([]float64, n)
		l.size = n
		return true
	}
	l.size = n
	return false
}

// Zero clears the active window.
func (l *Line) Zero() {
	clear(l.buf[:l.size])
}

// Len returns the size of the active window.
func (l *Line) Len() int { return l.size }

// allocated returns the size of the current allocation.
func (l *Line) allocated() int { return len(l.buf) }

// Samples returns the active window. It aliases the buffer.
func (l *Line) Samples() []float64 {
	return l.buf[:l.size:l.size]
}

// Carve hands out consecutive sub-slices of a Line's active window.
type Carve struct {
	buf []float64
	off int
}

// NewCarve starts carving at the beginning of l's active window.
func NewCarve(l *Line) *Carve {
	return &Carve{buf: l.Samples()}
}

// Next returns the next n samples. It panics if the window is exhausted,
// which means the layout and the size formula disagree.
func (c *Carve) Next(n int) []float64 {
	s := c.buf[c.off : c.off+n : c.off+n]
	c.off += n
	return s
}

// Used returns how many samples have been handed out.
func (c *Carve) Used() int { return c.off }
