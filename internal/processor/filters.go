package processor

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/linuxmatters/sptk/internal/cepstrum"
	"github.com/linuxmatters/sptk/internal/filter"
	"github.com/linuxmatters/sptk/internal/pade"
)

// FilterConfig holds the parameters of the synthesis filter tools
type FilterConfig struct {
	Tool ToolID

	Order     int        // coefficient order m
	Alpha     float64    // all-pass constant (mlsadf, mglsadf)
	Stage     int        // γ = -1/Stage (glsadf, mglsadf); mglsadf with 0 runs MLSA
	PadeOrder int        // Pade order (lmadf, mlsadf)
	Table     pade.Table // Pade coefficient set (lmadf, mlsadf)

	// Coefficients arrive one frame per FramePeriod samples and move
	// linearly towards the next frame every InterpPeriod samples.
	// InterpPeriod 0 holds each frame for the whole period.
	FramePeriod  int
	InterpPeriod int

	Inverse   bool // realise the inverse filter
	Transpose bool // use the transposed structure
	NoGain    bool // do not apply the c[0] gain

	// Input forms of generalized cepstra (glsadf, mglsadf)
	Normalized bool // frames are already gain normalized
	Multiplied bool // frames are multiplied by γ
}

// DefaultFilterConfig returns the defaults of the given filter tool
func DefaultFilterConfig(tool ToolID) *FilterConfig {
	cfg := &FilterConfig{
		Tool:         tool,
		Order:        25,
		Stage:        1,
		PadeOrder:    4,
		Table:        pade.TableTuned,
		FramePeriod:  100,
		InterpPeriod: 1,
	}
	if tool == ToolMLSADF || tool == ToolMGLSADF {
		cfg.Alpha = 0.35
	}
	return cfg
}

// family maps the tool onto the kernel family it runs
func (c *FilterConfig) family() (filter.Family, error) {
	if err := checkStage(c.Tool, StageFilter); err != nil {
		return 0, err
	}
	switch c.Tool {
	case ToolLMADF:
		return filter.FamilyLMA, nil
	case ToolMLSADF:
		return filter.FamilyMLSA, nil
	case ToolGLSADF:
		return filter.FamilyGLSA, nil
	default: // mglsadf
		if c.Stage == 0 {
			return filter.FamilyMLSA, nil
		}
		return filter.FamilyMGLSA, nil
	}
}

// Options returns the kernel options the configuration selects
func (c *FilterConfig) Options() (filter.Options, error) {
	fam, err := c.family()
	if err != nil {
		return filter.Options{}, err
	}
	if c.FramePeriod < 1 {
		return filter.Options{}, fmt.Errorf("%w: frame period must be at least 1, got %d", ErrInvalidConfig, c.FramePeriod)
	}
	if c.InterpPeriod < 0 || c.InterpPeriod > c.FramePeriod {
		return filter.Options{}, fmt.Errorf("%w: interpolation period must be 0..%d, got %d", ErrInvalidConfig, c.FramePeriod, c.InterpPeriod)
	}
	return filter.Options{
		Family:    fam,
		Structure: filter.StructureOf(c.Inverse, c.Transpose),
		Order:     c.Order,
		PadeOrder: c.PadeOrder,
		Table:     c.Table,
		Alpha:     c.Alpha,
		Stage:     c.Stage,
	}, nil
}

// prepare converts one input frame in place into kernel coefficients.
// c[0] stays in the domain the gain is interpolated in: log gain for LMA
// and MLSA, the linear gain K for the gamma families.
func (c *FilterConfig) prepare(fam filter.Family, frame []float64) {
	switch fam {
	case filter.FamilyMLSA:
		cepstrum.MC2B(frame, c.Alpha, frame)
	case filter.FamilyGLSA, filter.FamilyMGLSA:
		g := -1 / float64(c.Stage)
		cepstrum.FromGammaForm(frame, g, c.Normalized, c.Multiplied)
		if fam == filter.FamilyMGLSA {
			cepstrum.MC2B(frame, c.Alpha, frame)
		}
		cepstrum.GNorm(frame, frame, g)
	}
}

// RunFilter drives excitation from s.In through the configured synthesis
// filter, with coefficients from s.Coefficients, and writes the output to
// s.Out. Output stops when either stream ends; the final coefficient frame
// only serves as the interpolation target of the one before it.
func RunFilter(cfg *FilterConfig, s Streams, log *logrus.Logger, progress ProgressFunc) (*Result, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	f, err := filter.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s filter: %w", opts.Family, err)
	}

	logStart(log, cfg.Tool, logrus.Fields{
		"family":    opts.Family,
		"structure": opts.Structure,
		"order":     opts.Order,
		"delay":     len(f.Delay()),
	})

	m := cfg.Order
	cur := make([]float64, m+1)
	next := make([]float64, m+1)
	inc := make([]float64, m+1)
	tr := newTracker(cfg.Tool, s.Total, progress)

	readFrame := func(dst []float64) (bool, error) {
		err := s.Coefficients.ReadFrame(dst)
		switch {
		case err == nil:
			tr.result.Frames++
			cfg.prepare(opts.Family, dst)
			return true, nil
		case errors.Is(err, io.EOF):
			return false, nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			tr.result.Truncated = true
			log.WithField("tool", cfg.Tool).Warn("Coefficient stream ended inside a frame, ignoring the partial frame")
			return false, nil
		default:
			return false, fmt.Errorf("failed to read coefficients: %w", err)
		}
	}

	ok, err := readFrame(cur)
	if err != nil {
		return nil, err
	}
	for ok {
		if ok, err = readFrame(next); err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		if cfg.InterpPeriod > 0 {
			floats.SubTo(inc, next, cur)
			floats.Scale(float64(cfg.InterpPeriod)/float64(cfg.FramePeriod), inc)
		}

		more, err := filterPeriod(cfg, f, s, tr, log, cur, inc)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		copy(cur, next)
	}

	if err := s.Out.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush output: %w", err)
	}
	result := tr.finish()
	logDone(log, result)
	return result, nil
}

// filterPeriod runs one frame period. It reports false when the excitation
// ran out.
func filterPeriod(cfg *FilterConfig, f *filter.Filter, s Streams, tr *tracker, log *logrus.Logger, c, inc []float64) (bool, error) {
	fam := f.Options().Family
	gammaFamily := fam == filter.FamilyGLSA || fam == filter.FamilyMGLSA
	countdown := (cfg.InterpPeriod + 1) / 2
	for j := 0; j < cfg.FramePeriod; j++ {
		x, err := s.In.Read()
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				tr.result.Truncated = true
				log.WithField("tool", cfg.Tool).Warn("Excitation ended inside a sample")
				return false, nil
			}
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, fmt.Errorf("failed to read excitation: %w", err)
		}
		tr.input(x)

		if !cfg.NoGain {
			gain := c[0]
			if !gammaFamily {
				gain = math.Exp(gain)
			}
			if cfg.Inverse {
				x /= gain
			} else {
				x *= gain
			}
		}
		y := f.Process(x, c)

		if err := s.Out.Write(y); err != nil {
			return false, err
		}
		tr.output(y)

		if cfg.InterpPeriod > 0 {
			countdown--
			if countdown == 0 {
				floats.Add(c, inc)
				countdown = cfg.InterpPeriod
			}
		}
	}
	return true, nil
}
