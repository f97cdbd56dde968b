package tui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"linkharvest/pkg/models"
)

// TaskState is the state of one URL of the batch
type TaskState int

const (
	TaskPending TaskState = iota
	TaskActive
	TaskCompleted
	TaskFailed
)

// Task is one URL of the batch
type Task struct {
	URL       string
	File      string
	Worker    int
	Size      int64
	State     TaskState
	StartTime time.Time
	Err       error
}

// LogMessage is one line of the log panel
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// Model is the bubbletea model of the download dashboard. It is only
// touched from the bubbletea event loop.
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	title     string
	total     int
	tasks     map[string]*Task
	order     []string
	active    int
	completed int
	failed    int
	bytes     int64
	startTime time.Time
	finished  bool

	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
}

// NewModel creates the dashboard of a batch of total URLs
func NewModel(title string, total int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentCyan)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return Model{
		spinner:        s,
		progress:       p,
		title:          title,
		total:          total,
		tasks:          make(map[string]*Task),
		startTime:      time.Now(),
		maxLogMessages: 50,
	}
}

// Init starts the spinner
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) task(url string) *Task {
	t, ok := m.tasks[url]
	if !ok {
		t = &Task{URL: url, State: TaskPending}
		m.tasks[url] = t
		m.order = append(m.order, url)
	}
	return t
}

// StartTask marks url as being fetched by worker
func (m *Model) StartTask(url string, worker int) {
	t := m.task(url)
	if t.State == TaskActive {
		return
	}
	t.State = TaskActive
	t.Worker = worker
	t.StartTime = time.Now()
	m.active++
}

// FinishTask records the outcome of a URL
func (m *Model) FinishTask(o models.Outcome) {
	t := m.task(o.URL())
	if t.State == TaskActive {
		m.active--
	}

	if o.OK() {
		t.State = TaskCompleted
		t.File = filepath.Base(o.Artifact.Path)
		t.Size = o.Artifact.Size
		m.completed++
		m.bytes += o.Artifact.Size
		m.AddLogMessage("SUCCESS", fmt.Sprintf("Saved %s (%s)", t.File, FormatBytes(t.Size)))
		return
	}

	t.State = TaskFailed
	t.Err = o.Failure.Err
	m.failed++
	m.AddLogMessage("ERROR", fmt.Sprintf("Failed %s: %v", o.URL(), o.Failure.Err))
}

// AddLogMessage appends a line to the log panel
func (m *Model) AddLogMessage(level, message string) {
	color := dimWhite
	switch level {
	case "ERROR":
		color = accentRed
	case "WARN":
		color = accentOrange
	case "SUCCESS":
		color = accentGreen
	case "INFO":
		color = accentCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// ActiveTasks returns the tasks being fetched, oldest first
func (m *Model) ActiveTasks() []*Task {
	var active []*Task
	for _, url := range m.order {
		if t := m.tasks[url]; t.State == TaskActive {
			active = append(active, t)
		}
	}
	return active
}

// Done returns the number of finished tasks
func (m *Model) Done() int {
	return m.completed + m.failed
}

// Percent returns the finished share of the batch in [0, 1]
func (m *Model) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	p := float64(m.Done()) / float64(m.total)
	if p > 1 {
		p = 1
	}
	return p
}

// ETA estimates the remaining time from the average pace so far
func (m *Model) ETA() time.Duration {
	done := m.Done()
	if done == 0 || done >= m.total {
		return 0
	}
	perTask := time.Since(m.startTime) / time.Duration(done)
	return perTask * time.Duration(m.total-done)
}

// FormatBytes formats bytes to human readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
