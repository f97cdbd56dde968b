package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"linkharvest/pkg/models"
)

// ProgressDisplay is the plain terminal Dashboard: a single progress line
// when interactive, one line per file otherwise
type ProgressDisplay struct {
	mu         sync.Mutex
	label      string
	total      int
	done       int
	failed     int
	bytes      int64
	current    string
	startTime  time.Time
	singleLine bool
}

// NewProgressDisplay creates a display for total files. singleLine redraws
// one line in place and should only be used on a terminal.
func NewProgressDisplay(label string, total int, singleLine bool) *ProgressDisplay {
	return &ProgressDisplay{
		label:      label,
		total:      total,
		startTime:  time.Now(),
		singleLine: singleLine,
	}
}

func (p *ProgressDisplay) TaskStarted(url string, worker int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = url
	if p.singleLine {
		p.printProgress()
	}
}

func (p *ProgressDisplay) TaskFinished(o models.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if o.OK() {
		p.bytes += o.Artifact.Size
	} else {
		p.failed++
	}

	if p.singleLine {
		p.printProgress()
		return
	}
	if o.OK() {
		fmt.Fprintf(Out, "%s %s • %s\n", Green("✓"), filepath.Base(o.Artifact.Path), FormatBytes(o.Artifact.Size))
	} else {
		fmt.Fprintf(Out, "%s %s • %v\n", Red("✗"), o.URL(), o.Failure.Err)
	}
}

func (p *ProgressDisplay) Log(level, format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if p.singleLine {
		fmt.Fprint(Out, "\n")
	}
	switch level {
	case "ERROR":
		fmt.Fprintln(Out, Red(msg))
	case "WARN":
		fmt.Fprintln(Out, Yellow(msg))
	default:
		fmt.Fprintln(Out, msg)
	}
}

func (p *ProgressDisplay) Done(s models.Summary, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.singleLine {
		fmt.Fprint(Out, "\n")
	}
	fmt.Fprintf(Out, "\n%s Saved %d of %d files", Green("✓"), s.Succeeded, s.Succeeded+s.Failed)
	if p.label != "" {
		fmt.Fprintf(Out, " for %s", Cyan(p.label))
	}
	fmt.Fprintln(Out)
	fmt.Fprintf(Out, "  %s %s in %s\n", Dim("•"), FormatBytes(s.Bytes), FormatDuration(elapsed))
	if s.Failed > 0 {
		fmt.Fprintf(Out, "  %s %d downloads failed\n", Dim("•"), s.Failed)
	}
}

// Counts returns the finished and failed task counts
func (p *ProgressDisplay) Counts() (done, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed
}

func (p *ProgressDisplay) printProgress() {
	line := fmt.Sprintf("%s [%s] %d/%d • %s",
		Cyan(p.label),
		Bar(p.done, p.total, 20),
		p.done,
		p.total,
		FormatBytes(p.bytes),
	)
	if p.current != "" {
		line += " • " + shorten(p.current, 48)
	}
	if p.failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d errors", p.failed))
	}
	fmt.Fprintf(Out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

func shorten(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "…" + s[len(s)-max+1:]
}
