package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// lcg returns a deterministic generator of values in [-scale, scale).
// LCG parameters from Numerical Recipes.
func lcg(seed uint32, scale float64) func() float64 {
	state := seed
	return func() float64 {
		state = state*1664525 + 1013904223
		return ((float64(state)/float64(0xFFFFFFFF))*2.0 - 1.0) * scale
	}
}

// noise returns n samples of deterministic white noise in [-1, 1).
func noise(n int, seed uint32) []float64 {
	next := lcg(seed, 1)
	x := make([]float64, n)
	for i := range x {
		x[i] = next()
	}
	return x
}

// impulse returns a unit impulse followed by n-1 zeros.
func impulse(n int) []float64 {
	x := make([]float64, n)
	x[0] = 1
	return x
}

// coefficients returns m+1 coefficients falling off as scale/i, which keeps
// every family stable.
func coefficients(m int, scale float64, seed uint32) []float64 {
	next := lcg(seed, scale)
	c := make([]float64, m+1)
	c[0] = next()
	for i := 1; i <= m; i++ {
		c[i] = next() / float64(i)
	}
	return c
}

// run feeds xs through a fresh filter built from opts with fixed c.
func run(t *testing.T, opts Options, xs, c []float64) []float64 {
	t.Helper()
	f, err := New(opts)
	require.NoError(t, err)
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = f.Process(x, c)
	}
	return out
}

// maxAbsDiff returns the largest element-wise difference.
func maxAbsDiff(a, b []float64) float64 {
	worst := 0.0
	for i := range a {
		worst = math.Max(worst, math.Abs(a[i]-b[i]))
	}
	return worst
}

// maxAbs returns the largest magnitude in x.
func maxAbs(x []float64) float64 {
	worst := 0.0
	for _, v := range x {
		worst = math.Max(worst, math.Abs(v))
	}
	return worst
}
