// Package logging builds the command's logger and formats the end-of-run
// summary report.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrUnknownFormat indicates a log format other than text or json
var ErrUnknownFormat = errors.New("logging: unknown log format")

// Options configures New
type Options struct {
	Level  string    // logrus level name, e.g. "info" or "debug"
	Format string    // "text" or "json"
	Output io.Writer // defaults to stderr
}

// New returns a logger configured from opts. Stdout carries sample data, so
// the logger never writes there unless asked to.
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		var err error
		level, err = logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	log.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: level < logrus.DebugLevel,
		})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}

	if opts.Output != nil {
		log.SetOutput(opts.Output)
	} else {
		log.SetOutput(os.Stderr)
	}
	return log, nil
}

// OpenFile creates the debug log file at path and returns it for use as
// Options.Output
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create debug log: %w", err)
	}
	return f, nil
}
