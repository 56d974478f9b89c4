package adaptive

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/linuxmatters/sptk/internal/cepstrum"
	"github.com/linuxmatters/sptk/internal/filter"
)

// AMCEP is the adaptive mel-cepstral estimator. It adapts the MLSA filter
// coefficients b directly; the gradient signal is the residual run through
// the warped delay chain.
type AMCEP struct {
	state
	mlsa *filter.Filter
	b    []float64
	bb   []float64
	prev float64
}

// NewAMCEP returns an AMCEP with zero coefficients.
func NewAMCEP(cfg Config) (*AMCEP, error) {
	s, err := newState(cfg, cfg.Order+1)
	if err != nil {
		return nil, err
	}
	f, err := filter.New(filter.Options{
		Family:    filter.FamilyMLSA,
		Order:     cfg.Order,
		PadeOrder: cfg.PadeOrder,
		Table:     cfg.Table,
		Alpha:     cfg.Alpha,
	})
	if err != nil {
		return nil, fmt.Errorf("amcep: %w", err)
	}
	return &AMCEP{
		state: s,
		mlsa:  f,
		b:     make([]float64, cfg.Order+1),
		bb:    make([]float64, cfg.Order+1),
	}, nil
}

// warp advances the all-pass chain that turns the residual history into
// the mel-warped gradient signal e[1..m].
func (a *AMCEP) warp(x float64) {
	e, al := a.e, a.cfg.Alpha
	m := a.cfg.Order
	e[0] = al*e[0] + (1-al*al)*x
	for i := 1; i < m; i++ {
		e[i] += al * (e[i+1] - e[i-1])
	}
	copy(e[1:m+1], e[:m])
}

// Update implements Estimator.
func (a *AMCEP) Update(x float64) float64 {
	floats.ScaleTo(a.bb[1:], -1, a.b[1:])
	x = a.mlsa.Process(x, a.bb)

	a.warp(a.prev)
	a.prev = x

	a.leak(x)
	a.floor()
	a.b[0] = 0.5 * math.Log(a.gg)
	a.descend(a.b, x)
	return x
}

// Coefficients implements Estimator. The output is the mel-cepstrum.
func (a *AMCEP) Coefficients(dst []float64) []float64 {
	dst = grow(dst, len(a.b))
	cepstrum.B2MC(a.b, a.cfg.Alpha, dst)
	return dst
}

// Order implements Estimator.
func (a *AMCEP) Order() int { return a.cfg.Order }
