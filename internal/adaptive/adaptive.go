// Package adaptive implements sample-by-sample cepstral analysis: the
// adaptive cepstral (acep), mel-cepstral (amcep) and generalized cepstral
// (agcep) estimators.
//
// Each estimator runs its current coefficients as an inverse filter over the
// input, and moves them along a momentum-smoothed gradient of the residual
// energy. None of the parameters are range checked beyond what construction
// needs; out-of-range leakage, momentum or step values diverge silently.
package adaptive

import (
	"errors"
	"fmt"

	"github.com/linuxmatters/sptk/internal/pade"
)

// ErrInvalidOrder indicates an analysis order below one.
var ErrInvalidOrder = errors.New("adaptive: order must be at least 1")

// ErrUnknownKind indicates an unrecognised Kind.
var ErrUnknownKind = errors.New("adaptive: unknown estimator kind")

// Config holds the estimator parameters. Fields that a given estimator does
// not use are ignored.
type Config struct {
	Order  int     // cepstral order m
	Lambda float64 // leakage factor of the energy estimate
	Tau    float64 // momentum constant
	Step   float64 // step size
	Eps    float64 // lower bound of the energy estimate

	PadeOrder int        // acep, amcep
	Table     pade.Table // acep, amcep
	Alpha     float64    // amcep
	Stage     int        // agcep, γ = -1/Stage

	// Normalized makes agcep report K and the normalized coefficients
	// instead of the generalized cepstrum.
	Normalized bool
}

// DefaultConfig returns the defaults of the analysis tools.
func DefaultConfig() Config {
	return Config{
		Order:     25,
		Lambda:    0.98,
		Tau:       0.9,
		Step:      0.1,
		Eps:       0,
		PadeOrder: 4,
		Table:     pade.TableTuned,
		Alpha:     0.35,
		Stage:     1,
	}
}

// Kind selects an estimator.
type Kind int

const (
	KindACEP Kind = iota
	KindAMCEP
	KindAGCEP
)

func (k Kind) String() string {
	switch k {
	case KindACEP:
		return "acep"
	case KindAMCEP:
		return "amcep"
	case KindAGCEP:
		return "agcep"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Estimator is the common surface of the three estimators.
type Estimator interface {
	// Update consumes one input sample, adapts the coefficients and returns
	// the prediction residual.
	Update(x float64) float64

	// Coefficients writes the current Order()+1 output coefficients into
	// dst and returns it. A nil or short dst is reallocated.
	Coefficients(dst []float64) []float64

	// Order returns the analysis order.
	Order() int
}

// New builds the estimator of the given kind.
func New(kind Kind, cfg Config) (Estimator, error) {
	switch kind {
	case KindACEP:
		return NewACEP(cfg)
	case KindAMCEP:
		return NewAMCEP(cfg)
	case KindAGCEP:
		return NewAGCEP(cfg)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

// state is the adaptation state shared by all estimators.
type state struct {
	cfg Config
	e   []float64 // gradient signal history, e[1..m] used
	ep  []float64 // momentum-smoothed gradient
	gg  float64   // leaky energy estimate
}

func newState(cfg Config, historyLen int) (state, error) {
	if cfg.Order < 1 {
		return state{}, fmt.Errorf("%w: %d", ErrInvalidOrder, cfg.Order)
	}
	return state{
		cfg: cfg,
		e:   make([]float64, historyLen),
		ep:  make([]float64, cfg.Order+1),
		gg:  1,
	}, nil
}

// leak folds the residual x into the energy estimate.
func (s *state) leak(x float64) {
	s.gg = s.gg*s.cfg.Lambda + (1-s.cfg.Lambda)*x*x
}

// floor applies the lower bound Eps to the energy estimate.
func (s *state) floor() {
	if s.gg < s.cfg.Eps {
		s.gg = s.cfg.Eps
	}
}

// descend moves c[1..m] along the momentum-smoothed gradient built from the
// history e[1..m] and the residual x.
func (s *state) descend(c []float64, x float64) {
	m := s.cfg.Order
	mu := s.cfg.Step / float64(m) / s.gg
	tx := 2 * (1 - s.cfg.Tau) * x
	for i := 1; i <= m; i++ {
		s.ep[i] = s.cfg.Tau*s.ep[i] - tx*s.e[i]
		c[i] -= mu * s.ep[i]
	}
}

// push shifts the history by one sample and stores v at e[0].
func (s *state) push(v float64) {
	copy(s.e[1:], s.e[:len(s.e)-1])
	s.e[0] = v
}

func grow(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	return dst[:n]
}
