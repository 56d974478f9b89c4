// Package filter implements the recursive log-spectrum approximation
// kernels: LMA, MLSA, GLSA and MGLSA, each in forward, inverse, transposed
// and inverse-transposed structure.
//
// A Filter owns its delay line and scratch space and processes one sample
// per call. Construction validates every static parameter; Process never
// validates and never reports numerical divergence. Independent filters may
// run on separate goroutines; the Pade tables are the only shared state.
package filter

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/linuxmatters/sptk/internal/delay"
	"github.com/linuxmatters/sptk/internal/pade"
)

// Family selects the transfer function a Filter approximates.
type Family int

const (
	// FamilyLMA realises exp(Σ c[i] z^-i) with Pade sections.
	FamilyLMA Family = iota
	// FamilyMLSA is LMA over the all-pass warped delay of constant Alpha.
	FamilyMLSA
	// FamilyGLSA realises (1 + γ Σ c[i] z^-i)^(1/γ), γ = -1/Stage.
	FamilyGLSA
	// FamilyMGLSA is GLSA over the all-pass warped delay.
	FamilyMGLSA
)

func (f Family) String() string {
	switch f {
	case FamilyLMA:
		return "lma"
	case FamilyMLSA:
		return "mlsa"
	case FamilyGLSA:
		return "glsa"
	case FamilyMGLSA:
		return "mglsa"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

func (f Family) warped() bool { return f == FamilyMLSA || f == FamilyMGLSA }
func (f Family) gamma() bool  { return f == FamilyGLSA || f == FamilyMGLSA }

// Structure selects the direction and realisation of the recursion.
type Structure int

const (
	Forward          Structure = iota // H(z)
	Inverse                           // 1/H(z)
	Transpose                         // H(z), transposed realisation
	InverseTranspose                  // 1/H(z), transposed realisation
)

// StructureOf maps the two CLI switches onto a Structure.
func StructureOf(inverse, transpose bool) Structure {
	switch {
	case inverse && transpose:
		return InverseTranspose
	case inverse:
		return Inverse
	case transpose:
		return Transpose
	default:
		return Forward
	}
}

// Inverse reports whether the structure realises the reciprocal filter.
func (s Structure) Inverse() bool { return s == Inverse || s == InverseTranspose }

// Transposed reports whether the structure is the transposed realisation.
func (s Structure) Transposed() bool { return s == Transpose || s == InverseTranspose }

func (s Structure) String() string {
	switch s {
	case Forward:
		return "forward"
	case Inverse:
		return "inverse"
	case Transpose:
		return "transpose"
	case InverseTranspose:
		return "inverse-transpose"
	default:
		return fmt.Sprintf("Structure(%d)", int(s))
	}
}

// Options holds the static parameters of a Filter.
type Options struct {
	Family    Family
	Structure Structure

	// Order is the highest coefficient index m; Process reads c[0..m].
	Order int

	// PadeOrder and Table choose the approximant for LMA and MLSA.
	PadeOrder int
	Table     pade.Table

	// Alpha is the all-pass constant for MLSA and MGLSA. It is not checked;
	// |Alpha| >= 1 gives an unstable filter.
	Alpha float64

	// Stage is the number of GLSA/MGLSA sections, γ = -1/Stage.
	Stage int
}

// Filter is one stream's kernel instance.
type Filter struct {
	opts Options
	row  []float64

	line     delay.Line
	sections []*padeSection
	stages   []*gammaStage

	scaled []float64
	lastIn float64
}

// New validates opts and returns a zeroed Filter.
func New(opts Options) (*Filter, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}

	f := &Filter{opts: opts}
	if !opts.Family.gamma() {
		row, err := pade.Lookup(opts.Table, opts.PadeOrder)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		f.row = row
	}
	f.layout()
	return f, nil
}

func validate(opts Options) error {
	if opts.Order < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOrder, opts.Order)
	}
	if opts.Structure < Forward || opts.Structure > InverseTranspose {
		return fmt.Errorf("%w: %d", ErrUnknownStructure, int(opts.Structure))
	}
	switch opts.Family {
	case FamilyLMA, FamilyMLSA:
		if opts.PadeOrder != 4 && opts.PadeOrder != 5 {
			return fmt.Errorf("%w: got %d", ErrInvalidPadeOrder, opts.PadeOrder)
		}
	case FamilyGLSA, FamilyMGLSA:
		if opts.Stage < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidStage, opts.Stage)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFamily, int(opts.Family))
	}
	return nil
}

// DelaySize returns the number of delay cells a filter with opts keeps.
// Order 0 is a pure pass-through and keeps none.
func DelaySize(opts Options) int {
	m := opts.Order
	if m <= 0 {
		return 0
	}
	pd := opts.PadeOrder
	tr := opts.Structure.Transposed()

	switch opts.Family {
	case FamilyLMA, FamilyMLSA:
		warped := opts.Family.warped()
		n := pd + 1 + pd*operatorCells(warped, tr, 1)
		if m >= 2 {
			n += pd + 1 + pd*operatorCells(warped, tr, m)
		}
		return n
	case FamilyGLSA, FamilyMGLSA:
		return opts.Stage * (1 + operatorCells(opts.Family.warped(), tr, m))
	default:
		return 0
	}
}

// layout sizes the delay line for the current options, zeroes it and
// rebuilds the sections over it.
func (f *Filter) layout() {
	if !f.line.EnsureCapacity(DelaySize(f.opts)) {
		f.line.Zero()
	}
	f.sections = f.sections[:0]
	f.stages = f.stages[:0]
	f.lastIn = 0

	m := f.opts.Order
	if m == 0 {
		return
	}

	carve := delay.NewCarve(&f.line)
	warped := f.opts.Family.warped()
	tr := f.opts.Structure.Transposed()

	if f.opts.Family.gamma() {
		if cap(f.scaled) < m+1 {
			f.scaled = make([]float64, m+1)
		}
		f.scaled = f.scaled[:m+1]
		for i := 0; i < f.opts.Stage; i++ {
			cells := operatorCells(warped, tr, m)
			f.stages = append(f.stages, &gammaStage{
				op:      newOperator(warped, tr, 1, m, f.opts.Alpha, carve.Next(cells)),
				prev:    carve.Next(1),
				inverse: f.opts.Structure.Inverse(),
			})
		}
		f.checkLayout(carve)
		return
	}

	pd := f.opts.PadeOrder
	section := func(m1, m2 int) *padeSection {
		pt := carve.Next(pd + 1)
		ops := make([]operator, pd)
		for l := range ops {
			ops[l] = newOperator(warped, tr, m1, m2, f.opts.Alpha, carve.Next(operatorCells(warped, tr, m2)))
		}
		return newPadeSection(ops, f.row, pt, f.opts.Structure)
	}

	// D1 carries c[1] alone, D2 carries c[2..m]. The transposed cascade
	// runs them in reverse order.
	f.sections = append(f.sections, section(1, 1))
	if m >= 2 {
		f.sections = append(f.sections, section(2, m))
	}
	if tr && len(f.sections) == 2 {
		f.sections[0], f.sections[1] = f.sections[1], f.sections[0]
	}
	f.checkLayout(carve)
}

// checkLayout panics unless the sections used the whole delay line, which
// would mean DelaySize and layout disagree.
func (f *Filter) checkLayout(c *delay.Carve) {
	if c.Used() != f.line.Len() {
		panic(fmt.Sprintf("filter: %s/%s order %d carved %d of %d delay samples",
			f.opts.Family, f.opts.Structure, f.opts.Order, c.Used(), f.line.Len()))
	}
}

// Process filters one sample. c must hold at least Order+1 coefficients;
// c[0] is the gain term and is not applied here. For GLSA and MGLSA, c is
// the normalized generalized cepstrum (see cepstrum.GNorm); γ is applied
// internally.
func (f *Filter) Process(x float64, c []float64) float64 {
	if len(f.stages) > 0 {
		m := f.opts.Order
		cg := f.scaled
		cg[0] = 0
		floats.ScaleTo(cg[1:], f.Gamma(), c[1:m+1])
		last := len(f.stages) - 1
		for i, st := range f.stages {
			if i == last {
				f.lastIn = x
			}
			x = st.step(x, cg)
		}
		return x
	}

	for _, s := range f.sections {
		x = s.step(x, c)
	}
	f.lastIn = x
	return x
}

// Resize changes the order. The delay line is re-zeroed and grown if
// needed; stale state never survives a resize.
func (f *Filter) Resize(order int) error {
	if order < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}
	f.opts.Order = order
	f.layout()
	return nil
}

// Reset zeroes the delay line.
func (f *Filter) Reset() {
	f.line.Zero()
	f.lastIn = 0
}

// Options returns the filter's current parameters.
func (f *Filter) Options() Options { return f.opts }

// Order returns the current order.
func (f *Filter) Order() int { return f.opts.Order }

// Gamma returns -1/Stage for the gamma families and 0 otherwise.
func (f *Filter) Gamma() float64 {
	if !f.opts.Family.gamma() {
		return 0
	}
	return -1 / float64(f.opts.Stage)
}

// Delay returns the live delay line. It aliases the filter state.
func (f *Filter) Delay() []float64 { return f.line.Samples() }

// LastStageInput returns, for GLSA and MGLSA, the sample that entered the
// final section on the last Process call. The adaptive generalized cepstral
// estimator uses its history as the gradient signal. For LMA and MLSA it is
// the last output.
func (f *Filter) LastStageInput() float64 { return f.lastIn }
