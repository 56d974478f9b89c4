// Package cepstrum converts between the cepstral representations the filters
// consume: plain, generalized (γ), mel (α) and mel-generalized cepstra, their
// normalized forms, MLSA coefficients and minimum-phase impulse responses.
//
// Orders are taken from slice lengths: a coefficient slice of length m+1
// has order m. Functions that document aliasing support accept dst == src.
package cepstrum

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// GC2GC converts the normalized generalized cepstrum c1 with γ = g1 into c2
// with γ = g2, truncating or extending to len(c2). c2 may alias c1.
// Same γ and the same order is an exact copy.
func GC2GC(c1 []float64, g1 float64, c2 []float64, g2 float64) {
	m1, m2 := len(c1)-1, len(c2)-1
	if g1 == g2 {
		n := copy(c2, c1)
		clear(c2[n:])
		return
	}

	src := make([]float64, m1+1)
	copy(src, c1)

	c2[0] = src[0]
	for i := 1; i <= m2; i++ {
		var ss1, ss2 float64
		mn := min(m1, i-1)
		for k := 1; k <= mn; k++ {
			mk := i - k
			cc := src[k] * c2[mk]
			ss2 += float64(k) * cc
			ss1 += float64(mk) * cc
		}
		v := 0.0
		if i <= m1 {
			v = src[i]
		}
		c2[i] = v + (g2*ss2-g1*ss1)/float64(i)
	}
}

// GNorm normalizes a generalized cepstrum: c2[0] becomes the gain K and
// c2[1..m] the normalized coefficients. γ == 0 is the plain cepstrum case,
// where K = exp(c1[0]). c2 may alias c1.
func GNorm(c1, c2 []float64, g float64) {
	if g == 0 {
		copy(c2[1:], c1[1:])
		c2[0] = math.Exp(c1[0])
		return
	}
	k := 1 + g*c1[0]
	floats.ScaleTo(c2[1:], 1/k, c1[1:])
	c2[0] = math.Pow(k, 1/g)
}

// IGNorm reverses GNorm. c2 may alias c1.
func IGNorm(c1, c2 []float64, g float64) {
	if g == 0 {
		copy(c2[1:], c1[1:])
		c2[0] = math.Log(c1[0])
		return
	}
	k := math.Pow(c1[0], g)
	floats.ScaleTo(c2[1:], k, c1[1:])
	c2[0] = (k - 1) / g
}

// Freqt re-expands the cepstrum c1 on the all-pass warped frequency axis of
// constant a, writing len(c2) coefficients. c2 may alias c1.
func Freqt(c1 []float64, a float64, c2 []float64) {
	m1, m2 := len(c1)-1, len(c2)-1
	b := 1 - a*a
	g := make([]float64, m2+1)
	d := make([]float64, m2+1)

	for i := -m1; i <= 0; i++ {
		d[0] = g[0]
		g[0] = c1[-i] + a*d[0]
		if m2 >= 1 {
			d[1] = g[1]
			g[1] = b*d[0] + a*d[1]
		}
		for j := 2; j <= m2; j++ {
			d[j] = g[j]
			g[j] = d[j-1] + a*(d[j]-g[j-1])
		}
	}
	copy(c2, g)
}

// MGC2MGC converts a mel-generalized cepstrum (a1, g1) of order len(c1)-1
// into (a2, g2) of order len(c2)-1. Equal warping skips the frequency
// transform entirely. c2 may alias c1.
func MGC2MGC(c1 []float64, a1, g1 float64, c2 []float64, a2, g2 float64) {
	a := (a2 - a1) / (1 - a1*a2)

	if a == 0 {
		tmp := make([]float64, len(c1))
		GNorm(c1, tmp, g1)
		GC2GC(tmp, g1, c2, g2)
		IGNorm(c2, c2, g2)
		return
	}

	Freqt(c1, a, c2)
	GNorm(c2, c2, g1)
	GC2GC(c2, g1, c2, g2)
	IGNorm(c2, c2, g2)
}

// MC2B converts a mel-cepstrum into MLSA filter coefficients. b may alias mc.
func MC2B(mc []float64, a float64, b []float64) {
	m := len(mc) - 1
	b[m] = mc[m]
	for i := m - 1; i >= 0; i-- {
		b[i] = mc[i] - a*b[i+1]
	}
}

// B2MC converts MLSA filter coefficients back into a mel-cepstrum.
// mc may alias b.
func B2MC(b []float64, a float64, mc []float64) {
	m := len(b) - 1
	d := b[m]
	mc[m] = d
	for i := m - 1; i >= 0; i-- {
		o := b[i] + a*d
		d = b[i]
		mc[i] = o
	}
}

// ImpulseResponse writes the first len(h) samples of the minimum-phase
// impulse response exp(Σ c[k] z^-k).
func ImpulseResponse(c, h []float64) {
	if len(h) == 0 {
		return
	}
	m := len(c) - 1
	h[0] = math.Exp(c[0])
	for n := 1; n < len(h); n++ {
		var d float64
		for k := 1; k <= min(n, m); k++ {
			d += float64(k) * c[k] * h[n-k]
		}
		h[n] = d / float64(n)
	}
}

// FromGammaForm undoes the optional input forms of a generalized cepstrum:
// normalized (c[0] = K) or multiplied by γ (c[1..m] scaled by γ and c[0]
// stored as 1 + γc[0]). Multiplication is ignored when g is 0.
func FromGammaForm(c []float64, g float64, normalized, multiplied bool) {
	if normalized {
		IGNorm(c, c, g)
	} else if multiplied && g != 0 {
		c[0] = (c[0] - 1) / g
	}
	if multiplied && g != 0 {
		floats.Scale(1/g, c[1:])
	}
}

// ToGammaForm applies the output forms undone by FromGammaForm.
func ToGammaForm(c []float64, g float64, normalized, multiplied bool) {
	if normalized {
		GNorm(c, c, g)
	} else if multiplied && g != 0 {
		c[0] = c[0]*g + 1
	}
	if multiplied && g != 0 {
		floats.Scale(g, c[1:])
	}
}
