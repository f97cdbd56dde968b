package models

import (
	"errors"
	"strings"
	"time"
)

// SearchQuery is the free text sent to the search engine, optionally
// restricted to a language given by its display name
type SearchQuery struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// ErrEmptyQuery is returned when a query has no text
var ErrEmptyQuery = errors.New("query text is empty")

// Validate rejects queries without text
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// QueryResult is the harvested URL list for one query of a batch
type QueryResult struct {
	Query SearchQuery `json:"query"`
	URLs  []string    `json:"urls"`
	Err   error       `json:"-"`
}

// DownloadTask is one URL to fetch into a destination directory
type DownloadTask struct {
	SourceURL string `json:"source_url"`
	DestDir   string `json:"dest_dir"`
}

// DownloadedArtifact describes a file written to disk
type DownloadedArtifact struct {
	SourceURL string        `json:"source_url"`
	Path      string        `json:"path"`
	Size      int64         `json:"size"`
	WorkerID  int           `json:"worker_id"`
	Duration  time.Duration `json:"duration"`
	// Reused is set when the file was already present and nothing was fetched
	Reused bool `json:"reused,omitempty"`
}

// DownloadFailure records a URL that could not be saved
type DownloadFailure struct {
	SourceURL string `json:"source_url"`
	Err       error  `json:"-"`
}

// Outcome is the result of a single download task. Exactly one of
// Artifact and Failure is set.
type Outcome struct {
	Artifact *DownloadedArtifact `json:"artifact,omitempty"`
	Failure  *DownloadFailure    `json:"failure,omitempty"`
}

// OK reports whether the task produced a file
func (o Outcome) OK() bool {
	return o.Artifact != nil
}

// URL returns the source URL of the task regardless of its result
func (o Outcome) URL() string {
	if o.Artifact != nil {
		return o.Artifact.SourceURL
	}
	if o.Failure != nil {
		return o.Failure.SourceURL
	}
	return ""
}

// Summary counts the outcomes of a batch
type Summary struct {
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	Bytes     int64 `json:"bytes"`
}

// Summarize tallies outcomes
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		if o.OK() {
			s.Succeeded++
			s.Bytes += o.Artifact.Size
		} else {
			s.Failed++
		}
	}
	return s
}
