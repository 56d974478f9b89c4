package processor

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/sptk/internal/adaptive"
	"github.com/linuxmatters/sptk/internal/audio"
	"github.com/linuxmatters/sptk/internal/cepstrum"
	"github.com/linuxmatters/sptk/internal/filter"
)

func TestRegistry(t *testing.T) {
	info, err := Lookup(ToolMLSADF)
	require.NoError(t, err)
	assert.Equal(t, StageFilter, info.Stage)

	_, err = Lookup("mcep")
	assert.ErrorIs(t, err, ErrUnknownTool)

	all := Tools()
	assert.Len(t, all, 16)
	for i := 1; i < len(all); i++ {
		assert.Less(t, string(all[i-1].ID), string(all[i].ID))
	}

	// Every transform tool has a builder
	for _, info := range all {
		if info.Stage == StageTransform {
			assert.Contains(t, transformBuilders, info.ID)
		}
	}
}

func TestRunnersDispatchThroughRegistry(t *testing.T) {
	log, _ := newTestLogger()
	xs := testNoise(64, 3)

	for _, info := range Tools() {
		t.Run(string(info.ID), func(t *testing.T) {
			var err error
			switch info.Stage {
			case StageFilter:
				_, err = DefaultFilterConfig(info.ID).Options()
			case StageEstimator:
				_, err = DefaultAdaptiveConfig(info.ID).kind()
			case StageTransform:
				_, err = RunTransform(DefaultTransformConfig(info.ID), newPipe(t, make([]float64, 26), nil).streams, log, nil)
			}
			assert.NoError(t, err)
		})
	}

	t.Run("unknown tool", func(t *testing.T) {
		_, err := DefaultFilterConfig("mcep").Options()
		assert.ErrorIs(t, err, ErrUnknownTool)

		_, err = RunAdaptive(DefaultAdaptiveConfig("mcep"), newPipe(t, xs, nil).streams, log, nil)
		assert.ErrorIs(t, err, ErrUnknownTool)

		_, err = RunTransform(DefaultTransformConfig("mcep"), newPipe(t, xs, nil).streams, log, nil)
		assert.ErrorIs(t, err, ErrUnknownTool)
	})

	t.Run("wrong stage", func(t *testing.T) {
		_, err := RunAdaptive(DefaultAdaptiveConfig(ToolGNorm), newPipe(t, xs, nil).streams, log, nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorContains(t, err, `"gnorm" is a transform tool, not analysis`)
	})
}

func TestFilterConfigOptions(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*FilterConfig)
		tool       ToolID
		wantFamily filter.Family
		wantErr    error
	}{
		{"lmadf", func(*FilterConfig) {}, ToolLMADF, filter.FamilyLMA, nil},
		{"mlsadf", func(*FilterConfig) {}, ToolMLSADF, filter.FamilyMLSA, nil},
		{"glsadf", func(*FilterConfig) {}, ToolGLSADF, filter.FamilyGLSA, nil},
		{"mglsadf", func(*FilterConfig) {}, ToolMGLSADF, filter.FamilyMGLSA, nil},
		{"mglsadf stage 0 runs mlsa", func(c *FilterConfig) { c.Stage = 0 }, ToolMGLSADF, filter.FamilyMLSA, nil},
		{"not a filter", func(*FilterConfig) {}, ToolGNorm, 0, ErrInvalidConfig},
		{"zero frame period", func(c *FilterConfig) { c.FramePeriod = 0 }, ToolLMADF, 0, ErrInvalidConfig},
		{"interp beyond frame", func(c *FilterConfig) { c.InterpPeriod = 101 }, ToolLMADF, 0, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFilterConfig(tt.tool)
			tt.mutate(cfg)
			opts, err := cfg.Options()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFamily, opts.Family)
		})
	}

	t.Run("glsadf stage 0 is rejected", func(t *testing.T) {
		cfg := DefaultFilterConfig(ToolGLSADF)
		cfg.Stage = 0
		log, _ := newTestLogger()
		p := newPipe(t, testNoise(10, 1), make([]float64, 26))
		_, err := RunFilter(cfg, p.streams, log, nil)
		assert.ErrorIs(t, err, filter.ErrInvalidStage)
	})
}

func TestRunFilterConstantFramesMatchKernel(t *testing.T) {
	const m, period, frames = 8, 50, 4
	frame := make([]float64, m+1)
	frame[0] = 0.4
	for i := 1; i <= m; i++ {
		frame[i] = 0.3 / float64(i*i)
	}
	excitation := testNoise(period*(frames-1), 5)

	tests := []struct {
		tool  ToolID
		stage int
	}{
		{ToolLMADF, 1},
		{ToolMLSADF, 1},
		{ToolGLSADF, 2},
		{ToolMGLSADF, 3},
		{ToolMGLSADF, 0},
	}

	for _, tt := range tests {
		for _, noGain := range []bool{true, false} {
			name := string(tt.tool)
			if !noGain {
				name += " with gain"
			}
			t.Run(name, func(t *testing.T) {
				cfg := DefaultFilterConfig(tt.tool)
				cfg.Order = m
				cfg.Stage = tt.stage
				cfg.FramePeriod = period
				cfg.NoGain = noGain

				log, _ := newTestLogger()
				p := newPipe(t, excitation, repeat(frame, frames))
				result, err := RunFilter(cfg, p.streams, log, nil)
				require.NoError(t, err)
				assert.EqualValues(t, frames, result.Frames)
				assert.EqualValues(t, len(excitation), result.OutputSamples)
				got := decode(t, &p.out)

				opts, err := cfg.Options()
				require.NoError(t, err)
				f, err := filter.New(opts)
				require.NoError(t, err)
				c := append([]float64(nil), frame...)
				cfg.prepare(opts.Family, c)
				gain := c[0]
				if opts.Family == filter.FamilyLMA || opts.Family == filter.FamilyMLSA {
					gain = math.Exp(gain)
				}

				require.Len(t, got, len(excitation))
				for i, x := range excitation {
					if !noGain {
						x *= gain
					}
					assert.Equal(t, f.Process(x, c), got[i], "sample %d", i)
				}
			})
		}
	}
}

func TestRunFilterInterpolatesGain(t *testing.T) {
	cfg := DefaultFilterConfig(ToolLMADF)
	cfg.Order = 0
	cfg.FramePeriod = 4

	log, _ := newTestLogger()
	p := newPipe(t, []float64{1, 1, 1, 1, 1, 1}, []float64{0, math.Log(2)})
	result, err := RunFilter(cfg, p.streams, log, nil)
	require.NoError(t, err)

	// Two frames cover one period; the gain climbs from 1 towards 2
	got := decode(t, &p.out)
	require.Len(t, got, 4)
	for k, y := range got {
		assert.InDelta(t, math.Pow(2, float64(k)/4), y, 1e-12, "sample %d", k)
	}
	assert.EqualValues(t, 4, result.InputSamples)
}

func TestRunFilterHoldsFramesWithoutInterpolation(t *testing.T) {
	cfg := DefaultFilterConfig(ToolLMADF)
	cfg.Order = 0
	cfg.FramePeriod = 3
	cfg.InterpPeriod = 0

	log, _ := newTestLogger()
	p := newPipe(t, []float64{1, 1, 1, 1, 1, 1}, []float64{0, math.Log(2), math.Log(4)})
	_, err := RunFilter(cfg, p.streams, log, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 2, 2, 2}, decode(t, &p.out), 1e-12)
}

func TestRunFilterStopsWithShorterStream(t *testing.T) {
	cfg := DefaultFilterConfig(ToolMLSADF)
	cfg.Order = 4
	cfg.FramePeriod = 20

	log, _ := newTestLogger()
	p := newPipe(t, testNoise(30, 2), repeat([]float64{0, 0.1, 0.05, 0, 0}, 3))
	result, err := RunFilter(cfg, p.streams, log, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 30, result.OutputSamples)
	assert.EqualValues(t, 3, result.Frames)
	assert.False(t, result.Truncated)
}

func TestRunFilterPartialCoefficientFrame(t *testing.T) {
	cfg := DefaultFilterConfig(ToolLMADF)
	cfg.Order = 2
	cfg.FramePeriod = 5

	log, hook := newTestLogger()
	coefficients := append(repeat([]float64{0, 0.1, 0.1}, 2), 0.5)
	p := newPipe(t, testNoise(20, 2), coefficients)
	result, err := RunFilter(cfg, p.streams, log, nil)
	require.NoError(t, err)

	assert.True(t, result.Truncated)
	assert.EqualValues(t, 5, result.OutputSamples)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunFilterInverseUndoesForward(t *testing.T) {
	const m = 6
	frame := make([]float64, m+1)
	frame[0] = 0.3
	for i := 1; i <= m; i++ {
		frame[i] = 0.2 * math.Cos(float64(i)) / float64(i)
	}
	frames := repeat(frame, 5)
	excitation := testNoise(160, 9)

	for _, tool := range []ToolID{ToolLMADF, ToolMLSADF, ToolGLSADF, ToolMGLSADF} {
		t.Run(string(tool), func(t *testing.T) {
			cfg := DefaultFilterConfig(tool)
			cfg.Order = m
			cfg.Stage = 2
			cfg.FramePeriod = 40
			log, _ := newTestLogger()

			p := newPipe(t, excitation, frames)
			_, err := RunFilter(cfg, p.streams, log, nil)
			require.NoError(t, err)
			synth := decode(t, &p.out)

			cfg.Inverse = true
			cfg.Transpose = true
			q := newPipe(t, synth, frames)
			_, err = RunFilter(cfg, q.streams, log, nil)
			require.NoError(t, err)

			assert.InDeltaSlice(t, excitation, decode(t, &q.out), 1e-9)
		})
	}
}

func TestRunAdaptive(t *testing.T) {
	const n = 100
	xs := testSine(n, 0.05)

	cfg := DefaultAdaptiveConfig(ToolACEP)
	cfg.Order = 4
	cfg.Period = 10

	t.Run("period", func(t *testing.T) {
		log, _ := newTestLogger()
		p := newPipe(t, xs, nil)
		p.streams.Residual = audio.NewWriter(&p.residual, audio.FormatDouble)
		result, err := RunAdaptive(cfg, p.streams, log, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 10, result.Frames)

		est, err := adaptive.NewACEP(cfg.Config)
		require.NoError(t, err)
		var want, residual []float64
		for i, x := range xs {
			residual = append(residual, est.Update(x))
			if (i+1)%10 == 0 {
				want = append(want, est.Coefficients(nil)...)
			}
		}
		assert.Equal(t, want, decode(t, &p.out))
		assert.Equal(t, residual, decode(t, &p.residual))
	})

	t.Run("average", func(t *testing.T) {
		avg := *cfg
		avg.Average = true
		log, _ := newTestLogger()
		p := newPipe(t, xs, nil)
		_, err := RunAdaptive(&avg, p.streams, log, nil)
		require.NoError(t, err)

		est, err := adaptive.NewACEP(cfg.Config)
		require.NoError(t, err)
		sum := make([]float64, 5)
		var want []float64
		for i, x := range xs {
			est.Update(x)
			for j, v := range est.Coefficients(nil) {
				sum[j] += v
			}
			if (i+1)%10 == 0 {
				for j := range sum {
					want = append(want, sum[j]/10)
					sum[j] = 0
				}
			}
		}
		assert.InDeltaSlice(t, want, decode(t, &p.out), 1e-12)
	})

	t.Run("agcep stage 0 is rejected", func(t *testing.T) {
		bad := DefaultAdaptiveConfig(ToolAGCEP)
		bad.Stage = 0
		log, _ := newTestLogger()
		_, err := RunAdaptive(bad, newPipe(t, xs, nil).streams, log, nil)
		assert.ErrorIs(t, err, filter.ErrInvalidStage)
	})

	t.Run("zero period", func(t *testing.T) {
		bad := DefaultAdaptiveConfig(ToolAMCEP)
		bad.Period = 0
		log, _ := newTestLogger()
		_, err := RunAdaptive(bad, newPipe(t, xs, nil).streams, log, nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestRunTransform(t *testing.T) {
	frame := []float64{0.2, 0.3, -0.1, 0.05}

	t.Run("gnorm", func(t *testing.T) {
		cfg := DefaultTransformConfig(ToolGNorm)
		cfg.InOrder = 3
		cfg.InGamma = -0.5
		log, _ := newTestLogger()
		p := newPipe(t, repeat(frame, 3), nil)
		result, err := RunTransform(cfg, p.streams, log, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 3, result.Frames)

		want := make([]float64, 4)
		cepstrum.GNorm(frame, want, -0.5)
		assert.Equal(t, repeat(want, 3), decode(t, &p.out))
	})

	t.Run("c2ir length", func(t *testing.T) {
		cfg := DefaultTransformConfig(ToolC2IR)
		cfg.InOrder = 3
		cfg.Length = 16
		log, _ := newTestLogger()
		p := newPipe(t, repeat(frame, 2), nil)
		_, err := RunTransform(cfg, p.streams, log, nil)
		require.NoError(t, err)
		out := decode(t, &p.out)
		assert.Len(t, out, 32)
		assert.InDelta(t, math.Exp(0.2), out[0], 1e-15)
	})

	t.Run("mgc2sp bins", func(t *testing.T) {
		cfg := DefaultTransformConfig(ToolMGC2SP)
		cfg.InOrder = 3
		cfg.Length = 64
		log, _ := newTestLogger()
		p := newPipe(t, frame, nil)
		_, err := RunTransform(cfg, p.streams, log, nil)
		require.NoError(t, err)
		assert.Len(t, decode(t, &p.out), 33)
	})

	t.Run("mgc2mgc round trip through forms", func(t *testing.T) {
		fwd := DefaultTransformConfig(ToolMGC2MGC)
		fwd.InOrder, fwd.OutOrder = 3, 3
		fwd.InGamma, fwd.OutGamma = -0.5, -0.5
		fwd.OutNormalized = true
		fwd.OutMultiplied = true
		log, _ := newTestLogger()
		p := newPipe(t, frame, nil)
		_, err := RunTransform(fwd, p.streams, log, nil)
		require.NoError(t, err)
		mid := decode(t, &p.out)

		back := DefaultTransformConfig(ToolMGC2MGC)
		back.InOrder, back.OutOrder = 3, 3
		back.InGamma, back.OutGamma = -0.5, -0.5
		back.InNormalized = true
		back.InMultiplied = true
		q := newPipe(t, mid, nil)
		_, err = RunTransform(back, q.streams, log, nil)
		require.NoError(t, err)
		assert.InDeltaSlice(t, frame, decode(t, &q.out), 1e-12)
	})

	t.Run("partial frame", func(t *testing.T) {
		cfg := DefaultTransformConfig(ToolMC2B)
		cfg.InOrder = 3
		log, _ := newTestLogger()
		p := newPipe(t, append(repeat(frame, 2), 1, 2), nil)
		result, err := RunTransform(cfg, p.streams, log, nil)
		require.NoError(t, err)
		assert.True(t, result.Truncated)
		assert.EqualValues(t, 2, result.Frames)
	})

	t.Run("errors", func(t *testing.T) {
		log, _ := newTestLogger()

		_, err := RunTransform(DefaultTransformConfig(ToolLMADF), newPipe(t, frame, nil).streams, log, nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)

		odd := DefaultTransformConfig(ToolMGC2SP)
		odd.Length = 15
		_, err = RunTransform(odd, newPipe(t, frame, nil).streams, log, nil)
		assert.ErrorIs(t, err, cepstrum.ErrInvalidLength)

		short := DefaultTransformConfig(ToolC2IR)
		short.Length = 0
		_, err = RunTransform(short, newPipe(t, frame, nil).streams, log, nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestProgressReports(t *testing.T) {
	const n = 3 * progressInterval
	cfg := DefaultAdaptiveConfig(ToolACEP)
	cfg.Order = 2

	var reports []Progress
	log, _ := newTestLogger()
	p := newPipe(t, testSine(n, 0.01), nil)
	result, err := RunAdaptive(cfg, p.streams, log, func(pr Progress) {
		reports = append(reports, pr)
	})
	require.NoError(t, err)

	require.Len(t, reports, 4)
	for i := 1; i < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i].Fraction, reports[i-1].Fraction)
		assert.GreaterOrEqual(t, reports[i].Level, -60.0)
		assert.LessOrEqual(t, reports[i].Level, 0.0)
	}
	assert.InDelta(t, 1.0/3, reports[0].Fraction, 1e-12)
	assert.Equal(t, 1.0, reports[3].Fraction)
	assert.EqualValues(t, n, result.InputSamples)
	assert.InDelta(t, 20*math.Log10(math.Sqrt(0.5)), result.InputLevel(), 0.05)
}

func TestUnknownLengthProgress(t *testing.T) {
	cfg := DefaultTransformConfig(ToolB2MC)
	cfg.InOrder = 0

	var last Progress
	log, _ := newTestLogger()
	p := newPipe(t, make([]float64, progressInterval), nil)
	p.streams.Total = -1
	_, err := RunTransform(cfg, p.streams, log, func(pr Progress) {
		if pr.Fraction != 1 {
			last = pr
		}
	})
	require.NoError(t, err)
	assert.Equal(t, -1.0, last.Fraction)
	assert.Equal(t, -60.0, last.Level)
}
