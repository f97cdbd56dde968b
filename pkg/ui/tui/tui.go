package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"linkharvest/pkg/models"
)

// TUI runs the full screen dashboard of a download batch. Its methods are
// safe to call from any goroutine.
type TUI struct {
	program *tea.Program
}

// NewTUI creates the dashboard for a batch of total URLs
func NewTUI(title string, total int) *TUI {
	model := NewModel(title, total)
	program := tea.NewProgram(&model, tea.WithAltScreen())

	return &TUI{program: program}
}

// Start runs the dashboard until the batch is done or the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop quits the dashboard
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send delivers a message to the dashboard
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) TaskStarted(url string, worker int) {
	t.Send(TaskStartMsg{URL: url, Worker: worker})
}

func (t *TUI) TaskFinished(o models.Outcome) {
	t.Send(TaskDoneMsg{Outcome: o})
}

func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Done closes the dashboard
func (t *TUI) Done(s models.Summary, elapsed time.Duration) {
	t.Send(BatchDoneMsg{Summary: s, Elapsed: elapsed})
}
