package logging

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/linuxmatters/sptk/internal/processor"
)

// writeSection writes a section header with title and dashed underline
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// WriteReport writes the summary of a completed run: sample and frame counts
// on each side and the input and output levels.
func WriteReport(w io.Writer, r *processor.Result) error {
	if r == nil {
		return errors.New("logging: no result to report")
	}

	writeSection(w, fmt.Sprintf("sptk %s", r.Tool))

	table := NewMetricTable("Input", "Output")
	table.AddRow("Samples", []string{formatCount(r.InputSamples), formatCount(r.OutputSamples)}, "")
	table.AddRow("RMS Level", []string{formatMetricDB(r.InputLevel(), 1), formatMetricDB(r.OutputLevel(), 1)}, "dBFS")
	table.AddRow("Peak Level", []string{"", formatMetricPeak(r.OutputPeak, 1)}, "dBFS")
	if _, err := io.WriteString(w, table.String()); err != nil {
		return err
	}

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Frames:  %d\n", r.Frames)
	fmt.Fprintf(w, "Elapsed: %s", formatDuration(r.Elapsed))
	if r.Elapsed > 0 && r.InputSamples > 0 {
		rate := float64(r.InputSamples) / r.Elapsed.Seconds()
		fmt.Fprintf(w, " (%s samples/s)", formatMetric(math.Round(rate), 0))
	}
	fmt.Fprintln(w, "")
	if r.Truncated {
		fmt.Fprintln(w, "Input ended inside a frame; the partial frame was ignored")
	}
	return nil
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
