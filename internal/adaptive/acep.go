package adaptive

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/linuxmatters/sptk/internal/filter"
)

// ACEP is the adaptive cepstral estimator. The residual is the input passed
// through the LMA filter exp(-Σ c[i] z^-i).
type ACEP struct {
	state
	lma *filter.Filter
	c   []float64
	cc  []float64
}

// NewACEP returns an ACEP with zero coefficients.
func NewACEP(cfg Config) (*ACEP, error) {
	s, err := newState(cfg, cfg.Order+1)
	if err != nil {
		return nil, err
	}
	f, err := filter.New(filter.Options{
		Family:    filter.FamilyLMA,
		Order:     cfg.Order,
		PadeOrder: cfg.PadeOrder,
		Table:     cfg.Table,
	})
	if err != nil {
		return nil, fmt.Errorf("acep: %w", err)
	}
	return &ACEP{
		state: s,
		lma:   f,
		c:     make([]float64, cfg.Order+1),
		cc:    make([]float64, cfg.Order+1),
	}, nil
}

// Update implements Estimator.
func (a *ACEP) Update(x float64) float64 {
	floats.ScaleTo(a.cc[1:], -1, a.c[1:])
	x = a.lma.Process(x, a.cc)

	a.push(x)
	a.leak(x)
	// The log energy is taken before the floor.
	a.c[0] = 0.5 * math.Log(a.gg)
	a.floor()
	a.descend(a.c, x)
	return x
}

// Coefficients implements Estimator. The output is the cepstrum.
func (a *ACEP) Coefficients(dst []float64) []float64 {
	dst = grow(dst, len(a.c))
	copy(dst, a.c)
	return dst
}

// Order implements Estimator.
func (a *ACEP) Order() int { return a.cfg.Order }
