package filter

import "gonum.org/v1/gonum/floats"

// operator is one all-zero building block F(z) = Σ_{i=m1..m2} c[i] φ_i(z),
// where φ_i is z^-(i-1) for the plain operators and the (i-1)-fold
// first-order all-pass chain for the warped ones. The unit delay that makes
// F causal is held by the caller. Every operator owns a slice of the
// filter's delay line and nothing else.
type operator interface {
	// step feeds x, the caller's delayed sample, and returns F's output.
	step(x float64, c []float64) float64
}

// firOp is the direct form of the plain operator. It keeps m2 past inputs.
type firOp struct {
	m1, m2 int
	d      []float64
}

func (o *firOp) step(x float64, c []float64) float64 {
	d := o.d
	copy(d[1:], d[:len(d)-1])
	d[0] = x
	return floats.Dot(c[o.m1:o.m2+1], d[o.m1-1:o.m2])
}

// firTOp is the transposed form of firOp: partial sums travel towards the
// output instead of inputs travelling past the taps.
type firTOp struct {
	m1, m2 int
	r      []float64
}

func (o *firTOp) step(w float64, c []float64) float64 {
	r := o.r
	last := o.m2 - 1
	copy(r[:last], r[1:])
	floats.AddScaled(r[o.m1-1:last], w, c[o.m1:o.m2])
	r[last] = c[o.m2] * w
	return r[0]
}

// warpOp is the direct form of the all-pass warped operator. It keeps
// m2+2 cells: the input, m2 warped taps and one spill cell for the shift.
type warpOp struct {
	m1, m2 int
	a, aa  float64
	d      []float64
}

func newWarpOp(m1, m2 int, alpha float64, d []float64) *warpOp {
	return &warpOp{m1: m1, m2: m2, a: alpha, aa: 1 - alpha*alpha, d: d}
}

func (o *warpOp) step(x float64, c []float64) float64 {
	d, a := o.d, o.a
	d[0] = x
	d[1] = o.aa*d[0] + a*d[1]
	for i := 2; i <= o.m2; i++ {
		d[i] += a * (d[i+1] - d[i-1])
	}
	y := floats.Dot(d[o.m1:o.m2+1], c[o.m1:o.m2+1])
	copy(d[2:o.m2+2], d[1:o.m2+1])
	return y
}

// warpTOp is the transposed form of warpOp. Each all-pass section keeps one
// state cell, so it needs only m2 cells.
type warpTOp struct {
	m1, m2 int
	a, aa  float64
	s      []float64
}

func newWarpTOp(m1, m2 int, alpha float64, s []float64) *warpTOp {
	return &warpTOp{m1: m1, m2: m2, a: alpha, aa: 1 - alpha*alpha, s: s}
}

func (o *warpTOp) step(w float64, c []float64) float64 {
	s, a := o.s, o.a
	v := c[o.m2] * w
	for k := o.m2 - 1; k >= 1; k-- {
		u := s[k] - a*v
		s[k] = v + a*u
		v = u
		if k >= o.m1 {
			v += c[k] * w
		}
	}
	s[0] = a*s[0] + o.aa*v
	return s[0]
}

// operatorCells returns how many delay cells one operator of the given kind
// occupies.
func operatorCells(warped, transposed bool, m2 int) int {
	if warped && !transposed {
		return m2 + 2
	}
	return m2
}

// newOperator builds an operator over d, which must hold operatorCells cells.
func newOperator(warped, transposed bool, m1, m2 int, alpha float64, d []float64) operator {
	switch {
	case warped && transposed:
		return newWarpTOp(m1, m2, alpha, d)
	case warped:
		return newWarpOp(m1, m2, alpha, d)
	case transposed:
		return &firTOp{m1: m1, m2: m2, r: d}
	default:
		return &firOp{m1: m1, m2: m2, d: d}
	}
}
