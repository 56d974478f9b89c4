package ui

import (
	"github.com/linuxmatters/sptk/internal/processor"
)

// StartMsg indicates a stream has started
type StartMsg struct {
	Tool  processor.ToolID
	Input string // input path, "-" for stdin
}

// ProgressMsg carries a progress report from the runner
type ProgressMsg processor.Progress

// CompleteMsg indicates the stream has finished
type CompleteMsg struct {
	Result *processor.Result
	Error  error
}

// tickMsg is sent for spinner/timer animation
type tickMsg struct{}
