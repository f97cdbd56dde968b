package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"linkharvest/pkg/models"
)

func TestCheckpointManager(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	query := "filetype:pdf golang"
	harvested := []string{"https://a.example/1.pdf", "https://b.example/2.pdf", "https://c.example/3.pdf"}

	t.Run("CreateAndLoad", func(t *testing.T) {
		mgr, err := NewManager(query, "English")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if _, err := mgr.Create(query, "English", 50, harvested); err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		if !mgr.Exists() {
			t.Fatal("Expected checkpoint file to exist")
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded == nil {
			t.Fatal("Expected checkpoint, got nil")
		}
		if loaded.Query != query || loaded.Max != 50 {
			t.Errorf("Unexpected checkpoint %+v", loaded)
		}
		if len(loaded.Remaining()) != 3 {
			t.Errorf("Expected 3 remaining URLs, got %d", len(loaded.Remaining()))
		}
	})

	t.Run("RecordOutcomes", func(t *testing.T) {
		mgr, err := NewManager(query, "English")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		cp, err := mgr.Create(query, "English", 50, harvested)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		outcomes := []models.Outcome{
			{Artifact: &models.DownloadedArtifact{SourceURL: harvested[0], Path: "/tmp/1.pdf"}},
			{Failure: &models.DownloadFailure{SourceURL: harvested[1]}},
		}
		if err := mgr.RecordOutcomes(cp, outcomes); err != nil {
			t.Fatalf("Failed to record outcomes: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if !loaded.IsDownloaded(harvested[0]) {
			t.Error("Expected first URL to be downloaded")
		}
		if loaded.IsDownloaded(harvested[1]) {
			t.Error("Failed URL must stay pending")
		}
		remaining := loaded.Remaining()
		if len(remaining) != 2 || remaining[0] != harvested[1] || remaining[1] != harvested[2] {
			t.Errorf("Unexpected remaining URLs %v", remaining)
		}
		if loaded.Complete() {
			t.Error("Checkpoint should not be complete")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		mgr, err := NewManager(query, "English")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if err := mgr.Delete(); err != nil {
			t.Fatalf("Failed to delete checkpoint: %v", err)
		}
		if mgr.Exists() {
			t.Error("Checkpoint should not exist after deletion")
		}
		cp, err := mgr.Load()
		if err != nil || cp != nil {
			t.Errorf("Expected no checkpoint, got %v, %v", cp, err)
		}
		if err := mgr.Delete(); err != nil {
			t.Errorf("Deleting a missing checkpoint should succeed: %v", err)
		}
	})
}

func TestKeyIsStable(t *testing.T) {
	if Key("Golang ", "english") != Key("golang", "English") {
		t.Error("Key should ignore case and surrounding space")
	}
	if Key("golang", "") == Key("golang", "German") {
		t.Error("Language must be part of the key")
	}
}

func TestCompleteCheckpoint(t *testing.T) {
	cp := &Checkpoint{Harvested: []string{"u"}, Downloaded: map[string]string{"u": "f"}}
	if !cp.Complete() {
		t.Error("Expected checkpoint to be complete")
	}
	empty := &Checkpoint{Downloaded: map[string]string{}}
	if empty.Complete() {
		t.Error("A checkpoint without URLs is not complete")
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManagerInDir(dir, "q", "")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if err := os.WriteFile(mgr.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Load(); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Errorf("Expected decode error, got %v", err)
	}

	if err := os.WriteFile(mgr.Path(), []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Load(); err == nil {
		t.Error("Expected version error")
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManagerInDir(dir, "q", "")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if _, err := mgr.Create("q", "", 1, nil); err != nil {
		t.Fatalf("Failed to create checkpoint: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("Unexpected temporary files %v", matches)
	}
}
