package main

import (
	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/sptk/internal/audio"
	"github.com/linuxmatters/sptk/internal/cepstrum"
	"github.com/linuxmatters/sptk/internal/pade"
	"github.com/linuxmatters/sptk/internal/processor"
)

// Shared flag groups. Defaults mirror processor.DefaultFilterConfig,
// adaptive.DefaultConfig and processor.DefaultTransformConfig.

type PadeFlags struct {
	PadeOrder   int  `short:"P" default:"4" enum:"4,5" env:"SPTK_PADE_ORDER" help:"Order of the Pade approximation."`
	ClassicPade bool `env:"SPTK_CLASSIC_PADE" help:"Use the classic Pade coefficients instead of the tuned set."`
}

func (p PadeFlags) table() pade.Table {
	if p.ClassicPade {
		return pade.TableClassic
	}
	return pade.TableTuned
}

type FilterFlags struct {
	Order        int    `short:"m" default:"25" env:"SPTK_ORDER" help:"Order of the coefficients."`
	FramePeriod  int    `short:"p" default:"100" env:"SPTK_FRAME_PERIOD" help:"Frame period in samples."`
	InterpPeriod int    `short:"i" default:"1" env:"SPTK_INTERP_PERIOD" help:"Interpolation period in samples, 0 holds each frame."`
	Inverse      bool   `help:"Run the inverse filter."`
	Transpose    bool   `help:"Use the transposed filter structure."`
	NoGain       bool   `help:"Do not apply the gain in c[0]."`
	Coefficients string `arg:"" type:"existingfile" help:"Coefficient file, one frame of order+1 values per frame period."`
	Input        string `arg:"" optional:"" default:"-" help:"Excitation file, stdin when omitted."`
}

func (f FilterFlags) config(tool processor.ToolID) *processor.FilterConfig {
	cfg := processor.DefaultFilterConfig(tool)
	cfg.Order = f.Order
	cfg.FramePeriod = f.FramePeriod
	cfg.InterpPeriod = f.InterpPeriod
	cfg.Inverse = f.Inverse
	cfg.Transpose = f.Transpose
	cfg.NoGain = f.NoGain
	return cfg
}

// run executes a filter tool with the coefficient file attached
func (f FilterFlags) run(g *Globals, cfg *processor.FilterConfig) error {
	setup := func(s *processor.Streams, format audio.Format) (func(), error) {
		coef, _, err := audio.OpenFile(f.Coefficients, format)
		if err != nil {
			return nil, err
		}
		s.Coefficients = coef
		return func() { coef.Close() }, nil
	}
	return g.execute(cfg.Tool, f.Input, setup, func(s processor.Streams, log *logrus.Logger, progress processor.ProgressFunc) (*processor.Result, error) {
		return processor.RunFilter(cfg, s, log, progress)
	})
}

type GammaFormFlags struct {
	Normalized bool `short:"n" help:"Coefficients are gain normalized."`
	Multiplied bool `short:"u" help:"Coefficients are multiplied by gamma."`
}

// LmadfCmd runs the LMA filter
type LmadfCmd struct {
	FilterFlags `embed:""`
	PadeFlags   `embed:""`
}

func (c *LmadfCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolLMADF)
	cfg.PadeOrder = c.PadeOrder
	cfg.Table = c.table()
	return c.run(g, cfg)
}

// MlsadfCmd runs the MLSA filter
type MlsadfCmd struct {
	FilterFlags `embed:""`
	PadeFlags   `embed:""`
	Alpha       float64 `short:"a" default:"0.35" env:"SPTK_ALPHA" help:"All-pass constant."`
}

func (c *MlsadfCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolMLSADF)
	cfg.Alpha = c.Alpha
	cfg.PadeOrder = c.PadeOrder
	cfg.Table = c.table()
	return c.run(g, cfg)
}

// GlsadfCmd runs the GLSA filter
type GlsadfCmd struct {
	FilterFlags    `embed:""`
	GammaFormFlags `embed:""`
	Stage          int `short:"c" default:"1" env:"SPTK_STAGE" help:"Number of stages, gamma = -1/stage."`
}

func (c *GlsadfCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolGLSADF)
	cfg.Stage = c.Stage
	cfg.Normalized = c.Normalized
	cfg.Multiplied = c.Multiplied
	return c.run(g, cfg)
}

// MglsadfCmd runs the MGLSA filter, or MLSA when the stage is 0
type MglsadfCmd struct {
	FilterFlags    `embed:""`
	PadeFlags      `embed:""`
	GammaFormFlags `embed:""`
	Alpha          float64 `short:"a" default:"0.35" env:"SPTK_ALPHA" help:"All-pass constant."`
	Stage          int     `short:"c" default:"1" env:"SPTK_STAGE" help:"Number of stages, gamma = -1/stage; 0 runs the MLSA filter."`
}

func (c *MglsadfCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolMGLSADF)
	cfg.Alpha = c.Alpha
	cfg.Stage = c.Stage
	cfg.PadeOrder = c.PadeOrder
	cfg.Table = c.table()
	cfg.Normalized = c.Normalized
	cfg.Multiplied = c.Multiplied
	return c.run(g, cfg)
}

type EstimatorFlags struct {
	Order     int     `short:"m" default:"25" env:"SPTK_ORDER" help:"Order of the analysis."`
	Lambda    float64 `short:"l" default:"0.98" env:"SPTK_LAMBDA" help:"Leakage factor of the energy estimate."`
	Tau       float64 `short:"t" default:"0.9" env:"SPTK_TAU" help:"Momentum constant."`
	Step      float64 `short:"k" default:"0.1" env:"SPTK_STEP" help:"Step size."`
	Eps       float64 `short:"e" default:"0" env:"SPTK_EPS" help:"Lower bound of the energy estimate."`
	Period    int     `short:"p" default:"1" env:"SPTK_OUTPUT_PERIOD" help:"Output one frame every this many samples."`
	Average   bool    `short:"s" help:"Output the average over each period."`
	ErrorFile string  `type:"path" help:"Write the prediction residual to this file."`
	Input     string  `arg:"" optional:"" default:"-" help:"Input signal file, stdin when omitted."`
}

func (f EstimatorFlags) config(tool processor.ToolID) *processor.AdaptiveConfig {
	cfg := processor.DefaultAdaptiveConfig(tool)
	cfg.Order = f.Order
	cfg.Lambda = f.Lambda
	cfg.Tau = f.Tau
	cfg.Step = f.Step
	cfg.Eps = f.Eps
	cfg.Period = f.Period
	cfg.Average = f.Average
	return cfg
}

// run executes an estimator with the optional residual file attached
func (f EstimatorFlags) run(g *Globals, cfg *processor.AdaptiveConfig) error {
	var setup setupFunc
	if f.ErrorFile != "" {
		setup = func(s *processor.Streams, format audio.Format) (func(), error) {
			w, err := audio.CreateFile(f.ErrorFile, format)
			if err != nil {
				return nil, err
			}
			s.Residual = w
			return func() { w.Close() }, nil
		}
	}
	return g.execute(cfg.Tool, f.Input, setup, func(s processor.Streams, log *logrus.Logger, progress processor.ProgressFunc) (*processor.Result, error) {
		return processor.RunAdaptive(cfg, s, log, progress)
	})
}

// AcepCmd runs adaptive cepstral analysis
type AcepCmd struct {
	EstimatorFlags `embed:""`
	PadeFlags      `embed:""`
}

func (c *AcepCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolACEP)
	cfg.PadeOrder = c.PadeOrder
	cfg.Table = c.table()
	return c.run(g, cfg)
}

// AmcepCmd runs adaptive mel-cepstral analysis
type AmcepCmd struct {
	EstimatorFlags `embed:""`
	PadeFlags      `embed:""`
	Alpha          float64 `short:"a" default:"0.35" env:"SPTK_ALPHA" help:"All-pass constant."`
}

func (c *AmcepCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolAMCEP)
	cfg.Alpha = c.Alpha
	cfg.PadeOrder = c.PadeOrder
	cfg.Table = c.table()
	return c.run(g, cfg)
}

// AgcepCmd runs adaptive generalized cepstral analysis
type AgcepCmd struct {
	EstimatorFlags `embed:""`
	Stage          int  `short:"c" default:"1" env:"SPTK_STAGE" help:"Number of stages, gamma = -1/stage."`
	Normalized     bool `short:"n" help:"Output the normalized generalized cepstrum."`
}

func (c *AgcepCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolAGCEP)
	cfg.Stage = c.Stage
	cfg.Normalized = c.Normalized
	return c.run(g, cfg)
}

type TransformFlags struct {
	Order int    `short:"m" default:"25" env:"SPTK_ORDER" help:"Order of the input coefficients."`
	Input string `arg:"" optional:"" default:"-" help:"Input coefficient file, stdin when omitted."`
}

func (f TransformFlags) config(tool processor.ToolID) *processor.TransformConfig {
	cfg := processor.DefaultTransformConfig(tool)
	cfg.InOrder = f.Order
	return cfg
}

func (f TransformFlags) run(g *Globals, cfg *processor.TransformConfig) error {
	return g.execute(cfg.Tool, f.Input, nil, func(s processor.Streams, log *logrus.Logger, progress processor.ProgressFunc) (*processor.Result, error) {
		return processor.RunTransform(cfg, s, log, progress)
	})
}

// Gc2gcCmd converts between generalized cepstra of different gamma
type Gc2gcCmd struct {
	TransformFlags `embed:""`
	Gamma          float64 `short:"g" default:"0" help:"Input gamma."`
	Normalized     bool    `short:"n" help:"Input is gain normalized."`
	Multiplied     bool    `short:"u" help:"Input is multiplied by gamma."`
	OutOrder       int     `short:"M" default:"25" help:"Output order."`
	OutGamma       float64 `short:"G" default:"1" help:"Output gamma."`
	OutNormalized  bool    `short:"N" help:"Output gain normalized."`
	OutMultiplied  bool    `short:"U" help:"Output multiplied by gamma."`
}

func (c *Gc2gcCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolGC2GC)
	cfg.InGamma, cfg.OutGamma = c.Gamma, c.OutGamma
	cfg.OutOrder = c.OutOrder
	cfg.InNormalized, cfg.OutNormalized = c.Normalized, c.OutNormalized
	cfg.InMultiplied, cfg.OutMultiplied = c.Multiplied, c.OutMultiplied
	return c.run(g, cfg)
}

// GnormCmd gain-normalizes generalized cepstra
type GnormCmd struct {
	TransformFlags `embed:""`
	Gamma          float64 `short:"g" default:"0" help:"Gamma."`
}

func (c *GnormCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolGNorm)
	cfg.InGamma = c.Gamma
	return c.run(g, cfg)
}

// IgnormCmd undoes gnorm
type IgnormCmd struct {
	TransformFlags `embed:""`
	Gamma          float64 `short:"g" default:"0" help:"Gamma."`
}

func (c *IgnormCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolIGNorm)
	cfg.InGamma = c.Gamma
	return c.run(g, cfg)
}

// FreqtCmd warps the frequency axis of a cepstrum
type FreqtCmd struct {
	TransformFlags `embed:""`
	Alpha          float64 `short:"a" default:"0" help:"Input all-pass constant."`
	OutOrder       int     `short:"M" default:"25" help:"Output order."`
	OutAlpha       float64 `short:"A" default:"0.35" help:"Output all-pass constant."`
}

func (c *FreqtCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolFreqt)
	cfg.InAlpha, cfg.OutAlpha = c.Alpha, c.OutAlpha
	cfg.OutOrder = c.OutOrder
	return c.run(g, cfg)
}

// Mgc2mgcCmd converts between mel-generalized cepstra
type Mgc2mgcCmd struct {
	TransformFlags `embed:""`
	Alpha          float64 `short:"a" default:"0" help:"Input all-pass constant."`
	Gamma          float64 `short:"g" default:"0" help:"Input gamma."`
	Normalized     bool    `short:"n" help:"Input is gain normalized."`
	Multiplied     bool    `short:"u" help:"Input is multiplied by gamma."`
	OutOrder       int     `short:"M" default:"25" help:"Output order."`
	OutAlpha       float64 `short:"A" default:"0" help:"Output all-pass constant."`
	OutGamma       float64 `short:"G" default:"1" help:"Output gamma."`
	OutNormalized  bool    `short:"N" help:"Output gain normalized."`
	OutMultiplied  bool    `short:"U" help:"Output multiplied by gamma."`
}

func (c *Mgc2mgcCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolMGC2MGC)
	cfg.InAlpha, cfg.OutAlpha = c.Alpha, c.OutAlpha
	cfg.InGamma, cfg.OutGamma = c.Gamma, c.OutGamma
	cfg.OutOrder = c.OutOrder
	cfg.InNormalized, cfg.OutNormalized = c.Normalized, c.OutNormalized
	cfg.InMultiplied, cfg.OutMultiplied = c.Multiplied, c.OutMultiplied
	return c.run(g, cfg)
}

// Mc2bCmd converts mel-cepstrum to MLSA filter coefficients
type Mc2bCmd struct {
	TransformFlags `embed:""`
	Alpha          float64 `short:"a" default:"0.35" env:"SPTK_ALPHA" help:"All-pass constant."`
}

func (c *Mc2bCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolMC2B)
	cfg.InAlpha = c.Alpha
	return c.run(g, cfg)
}

// B2mcCmd converts MLSA filter coefficients to mel-cepstrum
type B2mcCmd struct {
	TransformFlags `embed:""`
	Alpha          float64 `short:"a" default:"0.35" env:"SPTK_ALPHA" help:"All-pass constant."`
}

func (c *B2mcCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolB2MC)
	cfg.InAlpha = c.Alpha
	return c.run(g, cfg)
}

// C2irCmd computes the minimum phase impulse response of a cepstrum
type C2irCmd struct {
	TransformFlags `embed:""`
	Length         int `short:"l" default:"256" help:"Length of the impulse response."`
}

func (c *C2irCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolC2IR)
	cfg.Length = c.Length
	return c.run(g, cfg)
}

// Mgc2spCmd computes the spectrum of a mel-generalized cepstrum
type Mgc2spCmd struct {
	TransformFlags `embed:""`
	Alpha          float64 `short:"a" default:"0" help:"All-pass constant."`
	Gamma          float64 `short:"g" default:"0" help:"Gamma."`
	Length         int     `short:"l" default:"256" help:"FFT length, a power of two."`
	Scale          int     `short:"o" default:"0" enum:"0,1,2,3" help:"Amplitude output: 0 20log10|H|, 1 ln|H|, 2 |H|, 3 |H|^2."`
	Phase          bool    `help:"Output the phase instead of the amplitude."`
	PhaseUnit      string  `default:"pi" enum:"pi,radian,degree" help:"Unit of the phase output."`
}

var phaseUnits = map[string]cepstrum.PhaseUnit{
	"pi":     cepstrum.PhasePi,
	"radian": cepstrum.PhaseRadian,
	"degree": cepstrum.PhaseDegree,
}

func (c *Mgc2spCmd) Run(g *Globals) error {
	cfg := c.config(processor.ToolMGC2SP)
	cfg.InAlpha = c.Alpha
	cfg.InGamma = c.Gamma
	cfg.Length = c.Length
	cfg.Scale = cepstrum.Scale(c.Scale)
	cfg.Phase = c.Phase
	cfg.PhaseUnit = phaseUnits[c.PhaseUnit]
	return c.run(g, cfg)
}
