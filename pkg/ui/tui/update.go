package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"linkharvest/pkg/models"
)

// TaskStartMsg is sent when a worker begins a URL
type TaskStartMsg struct {
	URL    string
	Worker int
}

// TaskDoneMsg is sent when a URL has an outcome
type TaskDoneMsg struct {
	Outcome models.Outcome
}

// LogMsg adds a line to the log panel
type LogMsg struct {
	Level   string
	Message string
}

// BatchDoneMsg ends the dashboard
type BatchDoneMsg struct {
	Summary models.Summary
	Elapsed time.Duration
}

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, m.width/2-10)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TaskStartMsg:
		m.StartTask(msg.URL, msg.Worker)
		return m, nil

	case TaskDoneMsg:
		m.FinishTask(msg.Outcome)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil

	case BatchDoneMsg:
		m.finished = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}
