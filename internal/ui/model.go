// Package ui provides the Bubbletea progress view shown while a stream runs
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/sptk/internal/processor"
)

// Spinner frames for streams of unknown length
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Model is the Bubbletea model for one running stream
type Model struct {
	Tool  processor.ToolID
	Input string

	// Progress tracking
	Fraction  float64 // 0.0 to 1.0, or -1 when the input length is unknown
	Samples   int64
	Level     float64 // recent output level in dBFS
	PeakLevel float64 // highest level seen so far
	StartTime time.Time

	spinnerIndex int

	// Results (populated when complete)
	Result *processor.Result
	Error  error
	Done   bool

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new progress model
func NewModel() Model {
	return Model{
		Fraction:  -1,
		Level:     -60.0,
		PeakLevel: -60.0,
		StartTime: time.Now(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The program runs without keyboard input; CompleteMsg is the only exit
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if !m.Done {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			return m, tickCmd()
		}
		return m, nil

	case StartMsg:
		m.Tool = msg.Tool
		m.Input = msg.Input
		m.StartTime = time.Now()
		return m, nil

	case ProgressMsg:
		m.Fraction = msg.Fraction
		m.Samples = msg.Samples
		m.Level = msg.Level
		if msg.Level > m.PeakLevel {
			m.PeakLevel = msg.Level
		}
		return m, nil

	case CompleteMsg:
		m.Result = msg.Result
		m.Error = msg.Error
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Done {
		return renderCompletion(m)
	}
	return renderProgress(m)
}

// Sender is the part of tea.Program the progress callback needs
type Sender interface {
	Send(msg tea.Msg)
}

// ProgressFunc returns a processor.ProgressFunc that forwards reports to p
func ProgressFunc(p Sender) processor.ProgressFunc {
	return func(pr processor.Progress) {
		p.Send(ProgressMsg(pr))
	}
}
