package adaptive

import (
	"fmt"
	"math"

	"github.com/linuxmatters/sptk/internal/cepstrum"
	"github.com/linuxmatters/sptk/internal/filter"
)

// AGCEP is the adaptive generalized cepstral estimator with γ = -1/Stage.
// It keeps the normalized generalized cepstrum: c[0] holds the gain K and
// c[1..m] drive the inverse GLSA filter. The gradient signal is the input of
// the filter's final section.
type AGCEP struct {
	state
	glsa *filter.Filter
	c    []float64
}

// NewAGCEP returns an AGCEP with unit gain and zero coefficients.
func NewAGCEP(cfg Config) (*AGCEP, error) {
	s, err := newState(cfg, cfg.Order+1)
	if err != nil {
		return nil, err
	}
	f, err := filter.New(filter.Options{
		Family:    filter.FamilyGLSA,
		Structure: filter.Inverse,
		Order:     cfg.Order,
		Stage:     cfg.Stage,
	})
	if err != nil {
		return nil, fmt.Errorf("agcep: %w", err)
	}
	c := make([]float64, cfg.Order+1)
	c[0] = 1
	return &AGCEP{state: s, glsa: f, c: c}, nil
}

// Update implements Estimator.
func (a *AGCEP) Update(x float64) float64 {
	y := a.glsa.Process(x, a.c)
	a.push(a.glsa.LastStageInput())

	a.leak(y)
	a.floor()
	a.c[0] = math.Sqrt(a.gg)
	a.descend(a.c, y)
	return y
}

// Coefficients implements Estimator. The output is the generalized
// cepstrum, or its normalized form when Config.Normalized is set.
func (a *AGCEP) Coefficients(dst []float64) []float64 {
	dst = grow(dst, len(a.c))
	copy(dst, a.c)
	if !a.cfg.Normalized {
		cepstrum.IGNorm(dst, dst, a.glsa.Gamma())
	}
	return dst
}

// Order implements Estimator.
func (a *AGCEP) Order() int { return a.cfg.Order }
