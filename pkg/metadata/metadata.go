package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"linkharvest/pkg/models"
)

// FileName is the manifest file written into the destination directory
const FileName = "linkharvest-manifest.json"

// Manifest records what a download batch produced
type Manifest struct {
	BatchID   string           `json:"batch_id"`
	Query     string           `json:"query,omitempty"`
	Language  string           `json:"language,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Artifacts []ArtifactRecord `json:"artifacts"`
	Failures  []FailureRecord  `json:"failures,omitempty"`
}

// ArtifactRecord is one saved file. File is relative to the manifest.
type ArtifactRecord struct {
	URL          string    `json:"url"`
	File         string    `json:"file"`
	Size         int64     `json:"size"`
	Reused       bool      `json:"reused,omitempty"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// FailureRecord is one URL that could not be saved
type FailureRecord struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// New creates an empty manifest with a fresh batch id
func New(query, language string) *Manifest {
	return &Manifest{
		BatchID:   uuid.New().String(),
		Query:     query,
		Language:  language,
		CreatedAt: time.Now().UTC(),
		Artifacts: []ArtifactRecord{},
	}
}

// FromOutcomes builds the manifest of a batch
func FromOutcomes(query, language string, outcomes []models.Outcome) *Manifest {
	m := New(query, language)
	m.Add(outcomes)
	return m
}

// Add appends outcomes. A URL recorded earlier is replaced, so a resumed
// batch does not list a file twice or keep a failure that later succeeded.
func (m *Manifest) Add(outcomes []models.Outcome) {
	now := time.Now().UTC()
	for _, o := range outcomes {
		switch {
		case o.Artifact != nil:
			m.dropURL(o.Artifact.SourceURL)
			m.Artifacts = append(m.Artifacts, ArtifactRecord{
				URL:          o.Artifact.SourceURL,
				File:         filepath.Base(o.Artifact.Path),
				Size:         o.Artifact.Size,
				Reused:       o.Artifact.Reused,
				DownloadedAt: now,
			})
		case o.Failure != nil:
			m.dropURL(o.Failure.SourceURL)
			msg := "unknown error"
			if o.Failure.Err != nil {
				msg = o.Failure.Err.Error()
			}
			m.Failures = append(m.Failures, FailureRecord{URL: o.Failure.SourceURL, Error: msg})
		}
	}
}

func (m *Manifest) dropURL(url string) {
	artifacts := m.Artifacts[:0]
	for _, a := range m.Artifacts {
		if a.URL != url {
			artifacts = append(artifacts, a)
		}
	}
	m.Artifacts = artifacts

	failures := m.Failures[:0]
	for _, f := range m.Failures {
		if f.URL != url {
			failures = append(failures, f)
		}
	}
	m.Failures = failures
}

// TotalBytes sums the artifact sizes
func (m *Manifest) TotalBytes() int64 {
	var n int64
	for _, a := range m.Artifacts {
		n += a.Size
	}
	return n
}

// Save writes the manifest into dir and returns its path
func (m *Manifest) Save(dir string) (string, error) {
	sort.SliceStable(m.Artifacts, func(i, j int) bool { return m.Artifacts[i].File < m.Artifacts[j].File })

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest file: %w", err)
	}
	return path, nil
}

// Load reads the manifest in dir
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Exists reports whether dir holds a manifest
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil
}

// Missing returns the artifacts whose file is no longer in dir
func (m *Manifest) Missing(dir string) []ArtifactRecord {
	var out []ArtifactRecord
	for _, a := range m.Artifacts {
		if _, err := os.Stat(filepath.Join(dir, a.File)); os.IsNotExist(err) {
			out = append(out, a)
		}
	}
	return out
}
