package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	errs "linkharvest/pkg/errors"
)

// Manager owns a destination directory: it writes pending artifacts, knows
// which canonical files already exist and reconciles pending files into
// canonical ones
type Manager struct {
	outputDir string
	namer     *Namer
	existing  map[string]bool
	mu        sync.RWMutex
}

// NewManager creates the output directory if needed and indexes the
// canonical files already in it
func NewManager(outputDir string, namer *Namer) (*Manager, error) {
	if namer == nil {
		namer = NewNamer(".pdf", nil)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errs.New(errs.ErrorTypeFilesystem, "create output directory", err).WithURL(outputDir)
	}

	m := &Manager{
		outputDir: outputDir,
		namer:     namer,
		existing:  make(map[string]bool),
	}
	if err := m.scanExistingFiles(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return errs.New(errs.ErrorTypeFilesystem, "scan output directory", err).WithURL(m.outputDir)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), m.namer.Extension()) {
			continue
		}
		if _, pending := m.namer.CanonicalName(name); !pending {
			m.existing[name] = true
		}
	}
	return nil
}

// OutputDir returns the destination directory
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// Namer returns the naming scheme used for artifacts
func (m *Manager) Namer() *Namer {
	return m.namer
}

// Existing returns the canonical path for sourceURL if that file is already present
func (m *Manager) Existing(sourceURL string) (string, bool) {
	name := m.namer.CanonicalFor(sourceURL)
	path := filepath.Join(m.outputDir, name)

	m.mu.RLock()
	known := m.existing[name]
	m.mu.RUnlock()
	if known {
		return path, true
	}

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		m.mu.Lock()
		m.existing[name] = true
		m.mu.Unlock()
		return path, true
	}
	return "", false
}

// ExistingCount returns the number of canonical files known to be present
func (m *Manager) ExistingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.existing)
}

// Write creates a pending file for sourceURL on behalf of worker and lets
// fill stream the content into it. The file is removed if anything fails.
func (m *Manager) Write(sourceURL string, worker int, fill func(io.Writer) (int64, error)) (string, int64, error) {
	path := filepath.Join(m.outputDir, m.namer.PendingName(SanitizeName(sourceURL), worker))

	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", 0, errs.New(errs.ErrorTypeFilesystem, "create pending file", err).WithURL(path)
	}

	n, err := fill(out)
	closeErr := out.Close()

	if err != nil {
		os.Remove(path)
		return "", 0, err
	}
	if closeErr != nil {
		os.Remove(path)
		return "", 0, errs.New(errs.ErrorTypeFilesystem, "close pending file", closeErr).WithURL(path)
	}
	return path, n, nil
}

// Reconcile runs the cleanup pass over the output directory and records
// the canonical files it produced
func (m *Manager) Reconcile() (*Report, error) {
	report, err := Reconcile(m.outputDir, m.namer)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	for _, r := range report.Resolutions {
		m.existing[filepath.Base(r.Canonical)] = true
	}
	m.mu.Unlock()
	return report, nil
}

// Action is what the cleanup pass did with a pending file
type Action string

const (
	ActionRenamed   Action = "renamed"
	ActionDiscarded Action = "discarded"
)

// Resolution maps one pending file to the canonical file that replaces it
type Resolution struct {
	Pending   string
	Canonical string
	Action    Action
}

// Report is the result of a cleanup pass
type Report struct {
	Resolutions []Resolution
	// Errors holds per-file failures; the pending files concerned are left in place
	Errors []error
}

// Resolve returns the final path for a pending path
func (r *Report) Resolve(pending string) (string, bool) {
	for _, res := range r.Resolutions {
		if res.Pending == pending {
			return res.Canonical, true
		}
	}
	return "", false
}

// Count returns the number of resolutions with the given action
func (r *Report) Count(a Action) int {
	n := 0
	for _, res := range r.Resolutions {
		if res.Action == a {
			n++
		}
	}
	return n
}

// Reconcile coalesces pending files in dir into canonical names. Files are
// visited in name order. A pending file whose canonical name is already taken
// is deleted, otherwise it is renamed. Failures on one file do not stop the
// pass; only an unreadable directory is returned as an error.
func Reconcile(dir string, namer *Namer) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeFilesystem, "read output directory", err).WithURL(dir)
	}

	report := &Report{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		canonicalName, pending := namer.CanonicalName(name)
		if !pending || canonicalName == name {
			continue
		}

		pendingPath := filepath.Join(dir, name)
		canonicalPath := filepath.Join(dir, canonicalName)

		_, statErr := os.Lstat(canonicalPath)
		switch {
		case statErr == nil:
			if err := os.Remove(pendingPath); err != nil {
				report.Errors = append(report.Errors,
					errs.New(errs.ErrorTypeFilesystem, "discard duplicate", err).WithURL(pendingPath))
				continue
			}
			report.Resolutions = append(report.Resolutions, Resolution{pendingPath, canonicalPath, ActionDiscarded})

		case errors.Is(statErr, fs.ErrNotExist):
			if err := os.Rename(pendingPath, canonicalPath); err != nil {
				report.Errors = append(report.Errors,
					errs.New(errs.ErrorTypeFilesystem, "rename to canonical", err).WithURL(pendingPath))
				continue
			}
			report.Resolutions = append(report.Resolutions, Resolution{pendingPath, canonicalPath, ActionRenamed})

		default:
			report.Errors = append(report.Errors,
				errs.New(errs.ErrorTypeFilesystem, "inspect canonical", statErr).WithURL(canonicalPath))
		}
	}
	return report, nil
}

// String summarises the report for logs
func (r *Report) String() string {
	return fmt.Sprintf("%d renamed, %d discarded, %d errors",
		r.Count(ActionRenamed), r.Count(ActionDiscarded), len(r.Errors))
}
