package processor

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/linuxmatters/sptk/internal/adaptive"
)

// AdaptiveConfig holds the parameters of the adaptive analysis tools
type AdaptiveConfig struct {
	Tool ToolID
	adaptive.Config

	// Period is the number of input samples between output frames
	Period int

	// Average outputs the mean of the coefficients over each period
	// instead of their value at the end of it
	Average bool
}

// DefaultAdaptiveConfig returns the defaults of the given analysis tool
func DefaultAdaptiveConfig(tool ToolID) *AdaptiveConfig {
	return &AdaptiveConfig{
		Tool:   tool,
		Config: adaptive.DefaultConfig(),
		Period: 1,
	}
}

// kind maps the tool onto its estimator
func (c *AdaptiveConfig) kind() (adaptive.Kind, error) {
	if err := checkStage(c.Tool, StageEstimator); err != nil {
		return 0, err
	}
	switch c.Tool {
	case ToolACEP:
		return adaptive.KindACEP, nil
	case ToolAMCEP:
		return adaptive.KindAMCEP, nil
	default:
		return adaptive.KindAGCEP, nil
	}
}

// RunAdaptive feeds s.In through the configured estimator and writes one
// coefficient frame every Period samples to s.Out. When s.Residual is set it
// receives the prediction error of every sample.
func RunAdaptive(cfg *AdaptiveConfig, s Streams, log *logrus.Logger, progress ProgressFunc) (*Result, error) {
	kind, err := cfg.kind()
	if err != nil {
		return nil, err
	}
	if cfg.Period < 1 {
		return nil, fmt.Errorf("%w: output period must be at least 1, got %d", ErrInvalidConfig, cfg.Period)
	}
	est, err := adaptive.New(kind, cfg.Config)
	if err != nil {
		return nil, err
	}

	logStart(log, cfg.Tool, logrus.Fields{
		"order":  cfg.Order,
		"lambda": cfg.Lambda,
		"tau":    cfg.Tau,
		"step":   cfg.Step,
		"period": cfg.Period,
	})

	tr := newTracker(cfg.Tool, s.Total, progress)
	coef := make([]float64, est.Order()+1)
	sum := make([]float64, est.Order()+1)
	countdown := cfg.Period

	for {
		x, err := s.In.Read()
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				tr.result.Truncated = true
				log.WithField("tool", cfg.Tool).Warn("Input ended inside a sample")
				break
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		tr.input(x)

		e := est.Update(x)
		tr.output(e)
		if s.Residual != nil {
			if err := s.Residual.Write(e); err != nil {
				return nil, err
			}
		}

		coef = est.Coefficients(coef)
		if cfg.Average {
			floats.Add(sum, coef)
		}

		countdown--
		if countdown > 0 {
			continue
		}
		countdown = cfg.Period

		if cfg.Average {
			floats.Scale(1/float64(cfg.Period), sum)
			copy(coef, sum)
			clear(sum)
		}
		if err := s.Out.WriteFrame(coef); err != nil {
			return nil, err
		}
		tr.result.Frames++
	}

	if err := s.Out.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush output: %w", err)
	}
	if s.Residual != nil {
		if err := s.Residual.Flush(); err != nil {
			return nil, fmt.Errorf("failed to flush residual: %w", err)
		}
	}
	result := tr.finish()
	logDone(log, result)
	return result, nil
}
