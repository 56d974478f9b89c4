package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A40000"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
)

// renderHeader renders the tool name and input
func renderHeader(m Model) string {
	input := "stdin"
	if m.Input != "" && m.Input != "-" {
		input = filepath.Base(m.Input)
	}
	return titleStyle.Render("sptk "+string(m.Tool)) + " " + subtitleStyle.Render(input)
}

// renderProgress renders the running view
func renderProgress(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	elapsed := time.Since(m.StartTime)
	spinner := accentStyle.Render(spinnerFrames[m.spinnerIndex])
	b.WriteString(spinner)
	b.WriteString(" ")
	if m.Fraction >= 0 {
		b.WriteString(renderProgressBar(m.Fraction, 40))
	} else {
		fmt.Fprintf(&b, "%d samples", m.Samples)
	}
	fmt.Fprintf(&b, " [%s]\n", formatElapsed(elapsed))

	b.WriteString(renderLevelMeter(m.Level, m.PeakLevel, 40))
	b.WriteString("\n")

	return b.String()
}

// renderProgressBar renders a progress bar with percentage
func renderProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))
	empty := width - filled

	bar := accentStyle.Render(strings.Repeat("━", filled)) +
		dimStyle.Render(strings.Repeat("━", empty))

	return fmt.Sprintf("%s %3d%%", bar, int(progress*100))
}

// renderLevelMeter renders the output level on a -60..0 dB scale
func renderLevelMeter(level, peak float64, width int) string {
	filled := int((level + 60) / 60 * float64(width))
	filled = min(max(filled, 0), width)

	bar := okStyle.Render(strings.Repeat("▮", filled)) +
		dimStyle.Render(strings.Repeat("▯", width-filled))

	return fmt.Sprintf("%s %5.1f dB (peak %.1f dB)", bar, level, peak)
}

// renderCompletion renders the final summary line
func renderCompletion(m Model) string {
	if m.Error != nil {
		return accentStyle.Render("✗") + fmt.Sprintf(" %s failed: %v\n", m.Tool, m.Error)
	}
	if m.Result == nil {
		return ""
	}
	r := m.Result
	return okStyle.Render("✓") + fmt.Sprintf(" %s: %d samples in, %d out, %d frames [%s]\n",
		r.Tool, r.InputSamples, r.OutputSamples, r.Frames, formatElapsed(r.Elapsed))
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
