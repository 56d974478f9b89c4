package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/sptk/internal/audio"
	"github.com/linuxmatters/sptk/internal/pade"
	"github.com/linuxmatters/sptk/internal/processor"
)

func writeStream(t *testing.T, dir, name string, values []float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	w, err := audio.CreateFile(path, audio.FormatDouble)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(values))
	require.NoError(t, w.Close())
	return path
}

func readStream(t *testing.T, path string) []float64 {
	t.Helper()
	r, meta, err := audio.OpenFile(path, audio.FormatDouble)
	require.NoError(t, err)
	defer r.Close()
	out := make([]float64, meta.Samples)
	require.NoError(t, r.ReadFrame(out))
	return out
}

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var c CLI
	parser, err := kong.New(&c, kong.Name("sptk"), toolVars())
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &c, ctx
}

func testGlobals(output string) *Globals {
	return &Globals{Format: "d", Output: output, LogLevel: "warn", LogFormat: "text"}
}

func TestCommandHelpFromRegistry(t *testing.T) {
	var c CLI
	parser, err := kong.New(&c, kong.Name("sptk"), toolVars())
	require.NoError(t, err)

	help := map[string]string{}
	for _, node := range parser.Model.Children {
		help[node.Name] = node.Help
	}
	for _, info := range processor.Tools() {
		assert.Equal(t, helpText(info.Description), help[string(info.ID)], info.ID)
	}
	assert.Equal(t, "LMA digital filter for cepstral synthesis.", help["lmadf"])
	assert.Equal(t, "Mel-cepstrum to MLSA filter coefficients.", help["mc2b"])
	assert.Equal(t, "", helpText(""))
}

func TestParseDefaults(t *testing.T) {
	dir := t.TempDir()
	coef := writeStream(t, dir, "c.mcep", make([]float64, 26))

	c, ctx := parse(t, "mlsadf", coef)
	require.NotNil(t, ctx.Selected())
	assert.Equal(t, "mlsadf", ctx.Selected().Name)

	cfg := c.Mlsadf.config(processor.ToolMLSADF)
	want := processor.DefaultFilterConfig(processor.ToolMLSADF)
	assert.Equal(t, want.Order, cfg.Order)
	assert.Equal(t, want.FramePeriod, cfg.FramePeriod)
	assert.Equal(t, want.InterpPeriod, cfg.InterpPeriod)
	assert.Equal(t, 0.35, c.Mlsadf.Alpha)
	assert.Equal(t, pade.TableTuned, c.Mlsadf.table())
	assert.Equal(t, "-", c.Mlsadf.Input)
	assert.Equal(t, "d", c.Format)
}

func TestParseFlags(t *testing.T) {
	c, _ := parse(t, "-F", "f", "amcep", "-m", "12", "-a", "0.42", "-l", "0.99", "-p", "80", "-s", "--classic-pade", "-P", "5", "in.d")
	assert.Equal(t, "f", c.Format)
	assert.Equal(t, 12, c.Amcep.Order)
	assert.Equal(t, 0.42, c.Amcep.Alpha)
	assert.Equal(t, 0.99, c.Amcep.Lambda)
	assert.Equal(t, 80, c.Amcep.Period)
	assert.True(t, c.Amcep.Average)
	assert.Equal(t, 5, c.Amcep.PadeOrder)
	assert.Equal(t, pade.TableClassic, c.Amcep.table())
	assert.Equal(t, "in.d", c.Amcep.Input)
}

func TestParseEnvironment(t *testing.T) {
	t.Setenv("SPTK_LAMBDA", "0.95")
	t.Setenv("SPTK_FORMAT", "f")
	c, _ := parse(t, "acep")
	assert.Equal(t, 0.95, c.Acep.Lambda)
	assert.Equal(t, "f", c.Format)
}

func TestParseRejectsBadPadeOrder(t *testing.T) {
	var c CLI
	parser, err := kong.New(&c, kong.Name("sptk"), toolVars())
	require.NoError(t, err)
	_, err = parser.Parse([]string{"acep", "-P", "3"})
	assert.Error(t, err)
}

func TestFilterCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	frame := []float64{0.2, 0.1, -0.05, 0.02}
	coef := writeStream(t, dir, "c.mcep", append(append([]float64{}, frame...), frame...))
	excitation := make([]float64, 40)
	excitation[0] = 1
	input := writeStream(t, dir, "pulse.d", excitation)
	output := filepath.Join(dir, "out.d")

	cmd := &MlsadfCmd{
		FilterFlags: FilterFlags{Order: 3, FramePeriod: 40, InterpPeriod: 1, Coefficients: coef, Input: input},
		PadeFlags:   PadeFlags{PadeOrder: 4},
		Alpha:       0.35,
	}
	require.NoError(t, cmd.Run(testGlobals(output)))

	out := readStream(t, output)
	require.Len(t, out, 40)
	assert.NotZero(t, out[0])
}

func TestEstimatorCommandWritesResidual(t *testing.T) {
	dir := t.TempDir()
	signal := make([]float64, 64)
	for i := range signal {
		signal[i] = float64(i%8) / 8
	}
	input := writeStream(t, dir, "x.d", signal)
	output := filepath.Join(dir, "c.d")
	residual := filepath.Join(dir, "e.d")

	cmd := &AcepCmd{
		EstimatorFlags: EstimatorFlags{Order: 4, Lambda: 0.98, Tau: 0.9, Step: 0.1, Period: 16, ErrorFile: residual, Input: input},
		PadeFlags:      PadeFlags{PadeOrder: 4},
	}
	require.NoError(t, cmd.Run(testGlobals(output)))

	assert.Len(t, readStream(t, output), 4*5)
	assert.Len(t, readStream(t, residual), 64)
}

func TestTransformCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeStream(t, dir, "c.d", []float64{0.5, 0.1, 0.2})
	output := filepath.Join(dir, "ir.d")

	cmd := &C2irCmd{TransformFlags: TransformFlags{Order: 2, Input: input}, Length: 8}
	require.NoError(t, cmd.Run(testGlobals(output)))
	assert.Len(t, readStream(t, output), 8)
}

func TestExecuteErrors(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.d")

	cmd := &GnormCmd{TransformFlags: TransformFlags{Order: 2, Input: filepath.Join(dir, "missing.d")}}
	assert.Error(t, cmd.Run(testGlobals(output)))

	g := testGlobals(output)
	g.LogLevel = "loud"
	input := writeStream(t, dir, "c.d", []float64{1, 2, 3})
	cmd.Input = input
	assert.Error(t, cmd.Run(g))
}

func TestDebugLogFile(t *testing.T) {
	dir := t.TempDir()
	input := writeStream(t, dir, "c.d", []float64{1, 0.5})
	g := testGlobals(filepath.Join(dir, "out.d"))
	g.DebugLog = filepath.Join(dir, "debug.log")

	cmd := &GnormCmd{TransformFlags: TransformFlags{Order: 1, Input: input}, Gamma: -0.5}
	require.NoError(t, cmd.Run(g))

	data, err := os.ReadFile(g.DebugLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Stream finished")
	assert.Contains(t, string(data), "read=2")
	assert.Contains(t, string(data), "written=2")
}
