package processor

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/sptk/internal/cepstrum"
)

// TransformConfig holds the parameters of the per-frame transform tools.
// Each tool reads InOrder+1 values per frame; fields a tool does not use are
// ignored.
type TransformConfig struct {
	Tool ToolID

	InOrder  int // input order m
	OutOrder int // output order M (gc2gc, freqt, mgc2mgc)

	InAlpha  float64 // input all-pass constant; the only one for mc2b, b2mc, mgc2sp
	OutAlpha float64 // output all-pass constant (freqt, mgc2mgc)
	InGamma  float64 // input γ; the only one for gnorm, ignorm, mgc2sp
	OutGamma float64 // output γ (gc2gc, mgc2mgc)

	// Input and output forms of generalized cepstra (gc2gc, mgc2mgc)
	InNormalized, OutNormalized bool
	InMultiplied, OutMultiplied bool

	Length int // impulse response length (c2ir) or FFT length (mgc2sp)

	Scale     cepstrum.Scale     // mgc2sp amplitude output
	Phase     bool               // mgc2sp outputs phase instead of amplitude
	PhaseUnit cepstrum.PhaseUnit // mgc2sp phase output
}

// DefaultTransformConfig returns the defaults of the given transform tool
func DefaultTransformConfig(tool ToolID) *TransformConfig {
	cfg := &TransformConfig{
		Tool:     tool,
		InOrder:  25,
		OutOrder: 25,
		Length:   256,
	}
	switch tool {
	case ToolFreqt:
		cfg.OutAlpha = 0.35
	case ToolMC2B, ToolB2MC:
		cfg.InAlpha = 0.35
	}
	return cfg
}

// transformFunc converts one input frame into one output frame
type transformFunc func(in, out []float64)

// transformBuilder validates the configuration and returns the per-frame
// conversion and the output frame length
type transformBuilder func(cfg *TransformConfig) (transformFunc, int, error)

// transformBuilders maps each transform tool to its builder
var transformBuilders = map[ToolID]transformBuilder{
	ToolGC2GC:   buildGC2GC,
	ToolGNorm:   buildGNorm,
	ToolIGNorm:  buildIGNorm,
	ToolFreqt:   buildFreqt,
	ToolMGC2MGC: buildMGC2MGC,
	ToolMC2B:    buildMC2B,
	ToolB2MC:    buildB2MC,
	ToolC2IR:    buildC2IR,
	ToolMGC2SP:  buildMGC2SP,
}

func buildGC2GC(cfg *TransformConfig) (transformFunc, int, error) {
	tmp := make([]float64, cfg.InOrder+1)
	return func(in, out []float64) {
		copy(tmp, in)
		cepstrum.FromGammaForm(tmp, cfg.InGamma, cfg.InNormalized, cfg.InMultiplied)
		cepstrum.GNorm(tmp, tmp, cfg.InGamma)
		cepstrum.GC2GC(tmp, cfg.InGamma, out, cfg.OutGamma)
		cepstrum.IGNorm(out, out, cfg.OutGamma)
		cepstrum.ToGammaForm(out, cfg.OutGamma, cfg.OutNormalized, cfg.OutMultiplied)
	}, cfg.OutOrder + 1, nil
}

func buildGNorm(cfg *TransformConfig) (transformFunc, int, error) {
	return func(in, out []float64) {
		cepstrum.GNorm(in, out, cfg.InGamma)
	}, cfg.InOrder + 1, nil
}

func buildIGNorm(cfg *TransformConfig) (transformFunc, int, error) {
	return func(in, out []float64) {
		cepstrum.IGNorm(in, out, cfg.InGamma)
	}, cfg.InOrder + 1, nil
}

func buildFreqt(cfg *TransformConfig) (transformFunc, int, error) {
	a := (cfg.OutAlpha - cfg.InAlpha) / (1 - cfg.InAlpha*cfg.OutAlpha)
	return func(in, out []float64) {
		cepstrum.Freqt(in, a, out)
	}, cfg.OutOrder + 1, nil
}

func buildMGC2MGC(cfg *TransformConfig) (transformFunc, int, error) {
	tmp := make([]float64, cfg.InOrder+1)
	return func(in, out []float64) {
		copy(tmp, in)
		cepstrum.FromGammaForm(tmp, cfg.InGamma, cfg.InNormalized, cfg.InMultiplied)
		cepstrum.MGC2MGC(tmp, cfg.InAlpha, cfg.InGamma, out, cfg.OutAlpha, cfg.OutGamma)
		cepstrum.ToGammaForm(out, cfg.OutGamma, cfg.OutNormalized, cfg.OutMultiplied)
	}, cfg.OutOrder + 1, nil
}

func buildMC2B(cfg *TransformConfig) (transformFunc, int, error) {
	return func(in, out []float64) {
		cepstrum.MC2B(in, cfg.InAlpha, out)
	}, cfg.InOrder + 1, nil
}

func buildB2MC(cfg *TransformConfig) (transformFunc, int, error) {
	return func(in, out []float64) {
		cepstrum.B2MC(in, cfg.InAlpha, out)
	}, cfg.InOrder + 1, nil
}

func buildC2IR(cfg *TransformConfig) (transformFunc, int, error) {
	if cfg.Length < 1 {
		return nil, 0, fmt.Errorf("%w: impulse response length must be at least 1, got %d", ErrInvalidConfig, cfg.Length)
	}
	return cepstrum.ImpulseResponse, cfg.Length, nil
}

func buildMGC2SP(cfg *TransformConfig) (transformFunc, int, error) {
	sp, err := cepstrum.NewSpectrum(cfg.Length)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.Phase {
		return func(in, out []float64) {
			sp.Phase(out, in, cfg.InAlpha, cfg.InGamma, cfg.PhaseUnit)
		}, sp.Bins(), nil
	}
	return func(in, out []float64) {
		sp.Amplitude(out, in, cfg.InAlpha, cfg.InGamma, cfg.Scale)
	}, sp.Bins(), nil
}

// RunTransform converts every frame of s.In and writes the results to s.Out.
// A trailing partial frame is dropped with a warning.
func RunTransform(cfg *TransformConfig, s Streams, log *logrus.Logger, progress ProgressFunc) (*Result, error) {
	if err := checkStage(cfg.Tool, StageTransform); err != nil {
		return nil, err
	}
	build := transformBuilders[cfg.Tool]
	if cfg.InOrder < 0 || cfg.OutOrder < 0 {
		return nil, fmt.Errorf("%w: orders must not be negative", ErrInvalidConfig)
	}
	convert, outLen, err := build(cfg)
	if err != nil {
		return nil, err
	}

	logStart(log, cfg.Tool, logrus.Fields{
		"in_order": cfg.InOrder,
		"out_len":  outLen,
	})

	tr := newTracker(cfg.Tool, s.Total, progress)
	in := make([]float64, cfg.InOrder+1)
	out := make([]float64, outLen)

	for {
		err := s.In.ReadFrame(in)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				tr.result.Truncated = true
				log.WithField("tool", cfg.Tool).Warn("Input ended inside a frame, ignoring the partial frame")
				break
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read frame: %w", err)
		}
		for _, v := range in {
			tr.input(v)
		}

		convert(in, out)

		if err := s.Out.WriteFrame(out); err != nil {
			return nil, err
		}
		for _, v := range out {
			tr.output(v)
		}
		tr.result.Frames++
	}

	if err := s.Out.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush output: %w", err)
	}
	result := tr.finish()
	logDone(log, result)
	return result, nil
}
