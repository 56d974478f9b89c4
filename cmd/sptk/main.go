package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/sptk/internal/audio"
	"github.com/linuxmatters/sptk/internal/cli"
	"github.com/linuxmatters/sptk/internal/logging"
	"github.com/linuxmatters/sptk/internal/processor"
	"github.com/linuxmatters/sptk/internal/ui"
)

var (
	version = "0.0.1"
)

// envFileVar names the dotenv file loaded before the flags are parsed
const envFileVar = "SPTK_ENV_FILE"

// versionFlag prints the styled version and exits before the command is
// validated, so it works without a subcommand
type versionFlag bool

func (v versionFlag) BeforeReset(app *kong.Kong, vars kong.Vars) error {
	cli.PrintVersion(app.Stdout, vars["version"])
	app.Exit(0)
	return nil
}

// Globals holds the flags shared by every subcommand
type Globals struct {
	Version   versionFlag `help:"Show version information."`
	Format    string      `short:"F" default:"d" enum:"d,f,double,float" env:"SPTK_FORMAT" help:"Sample format of every stream: d (float64) or f (float32)."`
	Output    string      `short:"O" default:"-" type:"path" env:"SPTK_OUTPUT" help:"Output file, stdout when -."`
	LogLevel  string      `default:"info" enum:"trace,debug,info,warn,error" env:"SPTK_LOG_LEVEL" help:"Log level."`
	LogFormat string      `default:"text" enum:"text,json" env:"SPTK_LOG_FORMAT" help:"Log format."`
	DebugLog  string      `type:"path" env:"SPTK_DEBUG_LOG" help:"Write the log to this file at debug level."`
	Progress  bool        `env:"SPTK_PROGRESS" help:"Show a progress view on stderr."`
	Report    bool        `env:"SPTK_REPORT" help:"Print a summary report on stderr when done."`
}

// CLI defines the command-line interface. Command help comes from the
// processor registry through toolVars.
type CLI struct {
	Globals

	Lmadf   LmadfCmd   `cmd:"" help:"${help_lmadf}"`
	Mlsadf  MlsadfCmd  `cmd:"" help:"${help_mlsadf}"`
	Glsadf  GlsadfCmd  `cmd:"" help:"${help_glsadf}"`
	Mglsadf MglsadfCmd `cmd:"" help:"${help_mglsadf}"`

	Acep  AcepCmd  `cmd:"" help:"${help_acep}"`
	Amcep AmcepCmd `cmd:"" help:"${help_amcep}"`
	Agcep AgcepCmd `cmd:"" help:"${help_agcep}"`

	Gc2gc   Gc2gcCmd   `cmd:"" help:"${help_gc2gc}"`
	Gnorm   GnormCmd   `cmd:"" help:"${help_gnorm}"`
	Ignorm  IgnormCmd  `cmd:"" help:"${help_ignorm}"`
	Freqt   FreqtCmd   `cmd:"" help:"${help_freqt}"`
	Mgc2mgc Mgc2mgcCmd `cmd:"" help:"${help_mgc2mgc}"`
	Mc2b    Mc2bCmd    `cmd:"" help:"${help_mc2b}"`
	B2mc    B2mcCmd    `cmd:"" help:"${help_b2mc}"`
	C2ir    C2irCmd    `cmd:"" help:"${help_c2ir}"`
	Mgc2sp  Mgc2spCmd  `cmd:"" help:"${help_mgc2sp}"`
}

func main() {
	// Defaults may come from a dotenv file; real environment variables win
	if path := os.Getenv(envFileVar); path != "" {
		if err := godotenv.Load(path); err != nil {
			cli.PrintError(os.Stderr, fmt.Sprintf("failed to load %s: %v", path, err))
			os.Exit(1)
		}
	}

	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("sptk"),
		kong.Description("Speech signal processing toolkit: cepstral synthesis filters, adaptive analysis and cepstral transforms."),
		kong.UsageOnError(),
		toolVars(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
		kong.Bind(&cliArgs.Globals),
	)

	if err := ctx.Run(); err != nil {
		cli.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// toolVars returns the interpolation variables: the version and one
// help_<tool> entry per registered tool
func toolVars() kong.Vars {
	vars := kong.Vars{"version": version}
	for _, info := range processor.Tools() {
		vars["help_"+string(info.ID)] = helpText(info.Description)
	}
	return vars
}

// helpText turns a registry description into a help sentence
func helpText(desc string) string {
	if desc == "" {
		return desc
	}
	return strings.ToUpper(desc[:1]) + desc[1:] + "."
}

// runner is the shape of the processor's Run functions once bound to their
// configuration
type runner func(s processor.Streams, log *logrus.Logger, progress processor.ProgressFunc) (*processor.Result, error)

// setupFunc attaches extra streams to s and returns their cleanup
type setupFunc func(s *processor.Streams, format audio.Format) (func(), error)

// execute opens the streams, runs one tool and reports on it
func (g *Globals) execute(tool processor.ToolID, input string, setup setupFunc, run runner) error {
	log, closeLog, err := g.logger()
	if err != nil {
		return err
	}
	defer closeLog()

	format, err := audio.ParseFormat(g.Format)
	if err != nil {
		return err
	}

	in, meta, err := audio.OpenFile(input, format)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := audio.CreateFile(g.Output, format)
	if err != nil {
		return err
	}
	defer out.Close()

	s := processor.Streams{In: in, Out: out, Total: meta.Samples}
	if setup != nil {
		cleanup, err := setup(&s, format)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	log.WithFields(logrus.Fields{
		"tool":    tool,
		"input":   meta.Path,
		"output":  g.Output,
		"format":  format,
		"samples": meta.Samples,
	}).Debug("Opened streams")

	result, err := g.runWithProgress(tool, meta.Path, s, log, run)
	if err != nil {
		return fmt.Errorf("%s: %w", tool, err)
	}

	fields := logrus.Fields{"tool": tool, "read": in.Count(), "written": out.Count()}
	if s.Coefficients != nil {
		fields["coefficients"] = s.Coefficients.Count()
	}
	log.WithFields(fields).Debug("Streams drained")

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	if g.Report {
		return logging.WriteReport(os.Stderr, result)
	}
	return nil
}

// logger builds the logger; --debug-log sends it to a file at debug level
func (g *Globals) logger() (*logrus.Logger, func(), error) {
	opts := logging.Options{Level: g.LogLevel, Format: g.LogFormat}
	closeLog := func() {}
	if g.DebugLog != "" {
		f, err := logging.OpenFile(g.DebugLog)
		if err != nil {
			return nil, nil, err
		}
		opts.Output = f
		opts.Level = "debug"
		closeLog = func() { f.Close() }
	}
	log, err := logging.New(opts)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return log, closeLog, nil
}

// runWithProgress runs the tool directly, or behind the progress view when
// --progress is set
func (g *Globals) runWithProgress(tool processor.ToolID, input string, s processor.Streams, log *logrus.Logger, run runner) (*processor.Result, error) {
	if !g.Progress {
		return run(s, log, nil)
	}

	// Stdin may carry samples, so the view takes no keyboard input
	p := tea.NewProgram(ui.NewModel(), tea.WithOutput(os.Stderr), tea.WithInput(nil))

	type outcome struct {
		result *processor.Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		p.Send(ui.StartMsg{Tool: tool, Input: input})
		result, err := run(s, log, ui.ProgressFunc(p))
		p.Send(ui.CompleteMsg{Result: result, Error: err})
		done <- outcome{result, err}
	}()

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("progress view failed: %w", err)
	}
	o := <-done
	return o.result, o.err
}
