// Package processor runs the toolkit's streaming stages: excitation through a
// synthesis filter, a signal through an adaptive estimator, or coefficient
// frames through a cepstral transform.
package processor

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/sptk/internal/audio"
)

// ErrUnknownTool indicates a tool name that is not in the registry
var ErrUnknownTool = errors.New("processor: unknown tool")

// ErrInvalidConfig indicates a runner configuration that cannot be executed
var ErrInvalidConfig = errors.New("processor: invalid configuration")

// ToolID identifies one stage of the toolkit
type ToolID string

// Tool identifiers, one per subcommand
const (
	// Synthesis filters: excitation in, filtered samples out
	ToolLMADF   ToolID = "lmadf"
	ToolMLSADF  ToolID = "mlsadf"
	ToolGLSADF  ToolID = "glsadf"
	ToolMGLSADF ToolID = "mglsadf"

	// Adaptive estimators: signal in, coefficient frames out
	ToolACEP  ToolID = "acep"
	ToolAMCEP ToolID = "amcep"
	ToolAGCEP ToolID = "agcep"

	// Transforms: coefficient frames in, frames out
	ToolGC2GC   ToolID = "gc2gc"
	ToolGNorm   ToolID = "gnorm"
	ToolIGNorm  ToolID = "ignorm"
	ToolFreqt   ToolID = "freqt"
	ToolMGC2MGC ToolID = "mgc2mgc"
	ToolMC2B    ToolID = "mc2b"
	ToolB2MC    ToolID = "b2mc"
	ToolC2IR    ToolID = "c2ir"
	ToolMGC2SP  ToolID = "mgc2sp"
)

// Stage classifies how a tool consumes its input
type Stage int

const (
	StageFilter Stage = iota
	StageEstimator
	StageTransform
)

func (s Stage) String() string {
	switch s {
	case StageFilter:
		return "filter"
	case StageEstimator:
		return "analysis"
	case StageTransform:
		return "transform"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// ToolInfo describes a registered tool
type ToolInfo struct {
	ID          ToolID
	Stage       Stage
	Description string
}

// tools is the registry of every stage the command line exposes
var tools = map[ToolID]ToolInfo{
	ToolLMADF:   {ToolLMADF, StageFilter, "LMA digital filter for cepstral synthesis"},
	ToolMLSADF:  {ToolMLSADF, StageFilter, "MLSA digital filter for mel-cepstral synthesis"},
	ToolGLSADF:  {ToolGLSADF, StageFilter, "GLSA digital filter for generalized cepstral synthesis"},
	ToolMGLSADF: {ToolMGLSADF, StageFilter, "MGLSA digital filter for mel-generalized cepstral synthesis"},
	ToolACEP:    {ToolACEP, StageEstimator, "adaptive cepstral analysis"},
	ToolAMCEP:   {ToolAMCEP, StageEstimator, "adaptive mel-cepstral analysis"},
	ToolAGCEP:   {ToolAGCEP, StageEstimator, "adaptive generalized cepstral analysis"},
	ToolGC2GC:   {ToolGC2GC, StageTransform, "generalized cepstral transformation"},
	ToolGNorm:   {ToolGNorm, StageTransform, "gain normalization of generalized cepstrum"},
	ToolIGNorm:  {ToolIGNorm, StageTransform, "inverse gain normalization of generalized cepstrum"},
	ToolFreqt:   {ToolFreqt, StageTransform, "frequency transformation of cepstrum"},
	ToolMGC2MGC: {ToolMGC2MGC, StageTransform, "mel-generalized cepstral transformation"},
	ToolMC2B:    {ToolMC2B, StageTransform, "mel-cepstrum to MLSA filter coefficients"},
	ToolB2MC:    {ToolB2MC, StageTransform, "MLSA filter coefficients to mel-cepstrum"},
	ToolC2IR:    {ToolC2IR, StageTransform, "cepstrum to minimum phase impulse response"},
	ToolMGC2SP:  {ToolMGC2SP, StageTransform, "mel-generalized cepstrum to spectrum"},
}

// Lookup returns the registry entry for id
func Lookup(id ToolID) (ToolInfo, error) {
	info, ok := tools[id]
	if !ok {
		return ToolInfo{}, fmt.Errorf("%w: %q", ErrUnknownTool, id)
	}
	return info, nil
}

// checkStage confirms that tool is registered and runs as the given stage
func checkStage(tool ToolID, want Stage) error {
	info, err := Lookup(tool)
	if err != nil {
		return err
	}
	if info.Stage != want {
		return fmt.Errorf("%w: %q is a %s tool, not %s", ErrInvalidConfig, tool, info.Stage, want)
	}
	return nil
}

// Tools returns every registered tool sorted by name
func Tools() []ToolInfo {
	out := make([]ToolInfo, 0, len(tools))
	for _, info := range tools {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Streams carries the I/O of one run
type Streams struct {
	In  *audio.Reader
	Out *audio.Writer

	// Coefficients feeds the synthesis filters
	Coefficients *audio.Reader

	// Residual optionally receives the estimators' prediction error
	Residual *audio.Writer

	// Total is the expected number of input samples, or -1 when unknown
	Total int64
}

// Progress is one progress report from a running stage
type Progress struct {
	Tool     ToolID
	Fraction float64 // 0..1, or -1 when the input length is unknown
	Samples  int64   // input samples consumed so far
	Level    float64 // recent output level in dBFS, floored at -60
}

// ProgressFunc receives progress reports. It is called from the runner's
// goroutine and must not block for long.
type ProgressFunc func(Progress)

// progressInterval is the number of input samples between progress reports
const progressInterval = 4096

// Result summarises one completed run
type Result struct {
	Tool          ToolID
	InputSamples  int64
	OutputSamples int64
	Frames        int64
	InputRMS      float64
	OutputRMS     float64
	OutputPeak    float64
	Elapsed       time.Duration
	Truncated     bool // input ended inside a sample or frame
}

// InputLevel returns the input RMS in dBFS
func (r *Result) InputLevel() float64 { return toDB(r.InputRMS) }

// OutputLevel returns the output RMS in dBFS
func (r *Result) OutputLevel() float64 { return toDB(r.OutputRMS) }

// toDB converts a linear level to dB, with silence reported as -Inf
func toDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

// tracker accumulates statistics and emits periodic progress
type tracker struct {
	result   *Result
	progress ProgressFunc
	total    int64
	start    time.Time

	inSum, outSum float64
	recent        level
}

func newTracker(tool ToolID, total int64, progress ProgressFunc) *tracker {
	return &tracker{
		result:   &Result{Tool: tool},
		progress: progress,
		total:    total,
		start:    time.Now(),
	}
}

func (t *tracker) input(x float64) {
	t.result.InputSamples++
	t.inSum += x * x
	if t.progress != nil && t.result.InputSamples%progressInterval == 0 {
		t.report()
	}
}

func (t *tracker) output(y float64) {
	t.result.OutputSamples++
	t.outSum += y * y
	t.recent.add(y)
	if a := math.Abs(y); a > t.result.OutputPeak {
		t.result.OutputPeak = a
	}
}

func (t *tracker) report() {
	fraction := -1.0
	if t.total > 0 {
		fraction = math.Min(float64(t.result.InputSamples)/float64(t.total), 1)
	}
	t.progress(Progress{
		Tool:     t.result.Tool,
		Fraction: fraction,
		Samples:  t.result.InputSamples,
		Level:    t.recent.take(),
	})
}

func (t *tracker) finish() *Result {
	r := t.result
	if r.InputSamples > 0 {
		r.InputRMS = math.Sqrt(t.inSum / float64(r.InputSamples))
	}
	if r.OutputSamples > 0 {
		r.OutputRMS = math.Sqrt(t.outSum / float64(r.OutputSamples))
	}
	r.Elapsed = time.Since(t.start)
	if t.progress != nil {
		t.progress(Progress{Tool: r.Tool, Fraction: 1, Samples: r.InputSamples, Level: t.recent.take()})
	}
	return r
}

// logStart and logDone record the run boundaries
func logStart(log *logrus.Logger, tool ToolID, fields logrus.Fields) {
	log.WithField("tool", tool).WithFields(fields).Debug("Stream started")
}

func logDone(log *logrus.Logger, r *Result) {
	log.WithFields(logrus.Fields{
		"tool":    r.Tool,
		"in":      r.InputSamples,
		"out":     r.OutputSamples,
		"frames":  r.Frames,
		"elapsed": r.Elapsed,
	}).Debug("Stream finished")
}
