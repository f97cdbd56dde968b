package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"linkharvest/pkg/models"
)

func TestModelTracksTasks(t *testing.T) {
	model := NewModel("golang", 3)

	model.StartTask("https://example.com/a.pdf", 0)
	model.StartTask("https://example.com/b.pdf", 1)
	if model.active != 2 {
		t.Errorf("Expected 2 active tasks, got %d", model.active)
	}

	model.FinishTask(models.Outcome{Artifact: &models.DownloadedArtifact{
		SourceURL: "https://example.com/a.pdf", Path: "/out/a.pdf", Size: 2048,
	}})
	model.FinishTask(models.Outcome{Failure: &models.DownloadFailure{
		SourceURL: "https://example.com/b.pdf", Err: errors.New("404"),
	}})

	if model.active != 0 {
		t.Errorf("Expected 0 active tasks, got %d", model.active)
	}
	if model.completed != 1 || model.failed != 1 {
		t.Errorf("Expected 1 completed and 1 failed, got %d and %d", model.completed, model.failed)
	}
	if model.bytes != 2048 {
		t.Errorf("Expected 2048 bytes, got %d", model.bytes)
	}
	if model.tasks["https://example.com/a.pdf"].File != "a.pdf" {
		t.Errorf("Expected file name a.pdf, got %q", model.tasks["https://example.com/a.pdf"].File)
	}
	if got := model.Percent(); got < 0.66 || got > 0.67 {
		t.Errorf("Expected two thirds done, got %f", got)
	}
	if len(model.logMessages) != 2 {
		t.Errorf("Expected 2 log messages, got %d", len(model.logMessages))
	}
}

func TestModelFinishWithoutStart(t *testing.T) {
	model := NewModel("", 1)
	model.FinishTask(models.Outcome{Artifact: &models.DownloadedArtifact{SourceURL: "u", Path: "/x/u.pdf"}})
	if model.active != 0 || model.Done() != 1 {
		t.Errorf("Unexpected counters active=%d done=%d", model.active, model.Done())
	}
	if model.ETA() != 0 {
		t.Errorf("Expected no ETA for a finished batch, got %v", model.ETA())
	}
}

func TestLogMessagesAreCapped(t *testing.T) {
	model := NewModel("", 0)
	for i := 0; i < 60; i++ {
		model.AddLogMessage("INFO", "line")
	}
	if len(model.logMessages) != model.maxLogMessages {
		t.Errorf("Expected %d log messages, got %d", model.maxLogMessages, len(model.logMessages))
	}
}

func TestUpdateMessages(t *testing.T) {
	model := NewModel("golang", 1)

	model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model.Update(TaskStartMsg{URL: "https://example.com/a.pdf", Worker: 3})
	if len(model.ActiveTasks()) != 1 || model.ActiveTasks()[0].Worker != 3 {
		t.Fatalf("Expected one active task on worker 3")
	}

	view := model.View()
	if !strings.Contains(view, "LINKHARVEST") {
		t.Error("Expected header in view")
	}

	model.Update(LogMsg{Level: "WARN", Message: "slow host"})
	if model.logMessages[len(model.logMessages)-1].Message != "slow host" {
		t.Error("Expected log message to be recorded")
	}

	_, cmd := model.Update(BatchDoneMsg{Summary: models.Summary{Succeeded: 1}})
	if !model.finished || cmd == nil {
		t.Error("Expected batch done to finish and quit")
	}

	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if !model.showHelp || cmd != nil {
		t.Error("Expected help toggle")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.bytes); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
