package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkharvest/pkg/logger"
	"linkharvest/pkg/models"
)

// Version of the checkpoint file format
const Version = 1

// Checkpoint is the resumable state of one download batch
type Checkpoint struct {
	Query     string   `json:"query"`
	Language  string   `json:"language,omitempty"`
	Max       int      `json:"max"`
	Harvested []string `json:"harvested"`
	// Downloaded maps a source URL to the file it was saved as
	Downloaded map[string]string `json:"downloaded"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Version    int               `json:"version"`
}

// IsDownloaded reports whether url was saved by an earlier run
func (c *Checkpoint) IsDownloaded(url string) bool {
	_, ok := c.Downloaded[url]
	return ok
}

// Remaining returns the harvested URLs not downloaded yet, in harvest order
func (c *Checkpoint) Remaining() []string {
	out := make([]string, 0, len(c.Harvested))
	for _, u := range c.Harvested {
		if !c.IsDownloaded(u) {
			out = append(out, u)
		}
	}
	return out
}

// Complete reports whether every harvested URL has been downloaded
func (c *Checkpoint) Complete() bool {
	return len(c.Harvested) > 0 && len(c.Remaining()) == 0
}

// Key identifies the checkpoint of a query. The same query and language
// always map to the same key.
func Key(query, language string) string {
	name := strings.ToLower(strings.TrimSpace(query)) + "\x00" + strings.ToLower(strings.TrimSpace(language))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Manager reads and writes the checkpoint file of one query
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a manager storing under the user data directory
func NewManager(query, language string) (*Manager, error) {
	dataDir, err := DataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManagerInDir(filepath.Join(dataDir, "checkpoints"), query, language)
}

// NewManagerInDir creates a manager storing under dir
func NewManagerInDir(dir, query, language string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{
		checkpointPath: filepath.Join(dir, Key(query, language)+".checkpoint.json"),
		logger:         logger.GetLogger().WithField("component", "checkpoint"),
	}, nil
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create starts a new checkpoint for query, replacing any previous one
func (m *Manager) Create(query, language string, max int, harvested []string) (*Checkpoint, error) {
	now := time.Now()
	cp := &Checkpoint{
		Query:      query,
		Language:   language,
		Max:        max,
		Harvested:  append([]string(nil), harvested...),
		Downloaded: make(map[string]string),
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    Version,
	}

	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint created", map[string]interface{}{
		"query":     query,
		"harvested": len(harvested),
		"path":      m.checkpointPath,
	})
	return cp, nil
}

// Load returns the stored checkpoint, or nil when there is none
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Version != Version {
		return nil, fmt.Errorf("unsupported checkpoint version %d", cp.Version)
	}
	if cp.Downloaded == nil {
		cp.Downloaded = make(map[string]string)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"query":      cp.Query,
		"harvested":  len(cp.Harvested),
		"downloaded": len(cp.Downloaded),
		"updated_at": cp.UpdatedAt,
	})
	return &cp, nil
}

// Save writes the checkpoint through a temporary file so a crash never
// leaves a truncated checkpoint behind
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}
	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.logger.Debug("Checkpoint deleted")
	return nil
}

// Exists reports whether a checkpoint file is present
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// RecordOutcomes marks the successful outcomes as downloaded and saves
func (m *Manager) RecordOutcomes(cp *Checkpoint, outcomes []models.Outcome) error {
	for _, o := range outcomes {
		if o.OK() {
			cp.Downloaded[o.Artifact.SourceURL] = o.Artifact.Path
		}
	}
	return m.Save(cp)
}

// Info summarises the stored checkpoint, or returns nil when there is none
func (m *Manager) Info() (map[string]interface{}, error) {
	cp, err := m.Load()
	if err != nil || cp == nil {
		return nil, err
	}

	return map[string]interface{}{
		"query":      cp.Query,
		"harvested":  len(cp.Harvested),
		"downloaded": len(cp.Downloaded),
		"remaining":  len(cp.Remaining()),
		"updated_at": cp.UpdatedAt,
		"age":        time.Since(cp.UpdatedAt),
	}, nil
}

// DataDirectory returns the per-user data directory of the application
func DataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "linkharvest")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "linkharvest")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			dataDir = filepath.Join(xdg, "linkharvest")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "linkharvest")
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}
