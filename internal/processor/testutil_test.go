package processor

import (
	"bytes"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/sptk/internal/audio"
)

// encode writes values as a raw double stream
func encode(t *testing.T, values []float64) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := audio.NewWriter(&buf, audio.FormatDouble)
	require.NoError(t, w.WriteFrame(values))
	require.NoError(t, w.Flush())
	return &buf
}

// decode reads every value of a raw double stream
func decode(t *testing.T, buf *bytes.Buffer) []float64 {
	t.Helper()
	require.Zero(t, buf.Len()%8, "output is not a whole number of doubles")
	out := make([]float64, buf.Len()/8)
	r := audio.NewReader(buf, audio.FormatDouble)
	require.NoError(t, r.ReadFrame(out))
	return out
}

// repeat returns frame concatenated n times
func repeat(frame []float64, n int) []float64 {
	out := make([]float64, 0, len(frame)*n)
	for i := 0; i < n; i++ {
		out = append(out, frame...)
	}
	return out
}

// testNoise returns deterministic white noise in [-1, 1).
// LCG parameters from Numerical Recipes.
func testNoise(n int, seed uint32) []float64 {
	state := seed
	x := make([]float64, n)
	for i := range x {
		state = state*1664525 + 1013904223
		x[i] = (float64(state)/float64(0xFFFFFFFF))*2.0 - 1.0
	}
	return x
}

// testSine returns n samples of a unit sine at freq cycles per sample
func testSine(n int, freq float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i))
	}
	return x
}

// pipe is the I/O of one test run
type pipe struct {
	out      bytes.Buffer
	residual bytes.Buffer
	streams  Streams
}

func newPipe(t *testing.T, in []float64, coefficients []float64) *pipe {
	t.Helper()
	p := &pipe{}
	p.streams = Streams{
		In:    audio.NewReader(encode(t, in), audio.FormatDouble),
		Out:   audio.NewWriter(&p.out, audio.FormatDouble),
		Total: int64(len(in)),
	}
	if coefficients != nil {
		p.streams.Coefficients = audio.NewReader(encode(t, coefficients), audio.FormatDouble)
	}
	return p
}

// newTestLogger returns a logger that records entries instead of printing
func newTestLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}
