package ui

import (
	"time"

	"linkharvest/pkg/models"
)

// Dashboard follows a download batch. TaskStarted may be called from
// several goroutines at once.
type Dashboard interface {
	TaskStarted(url string, worker int)
	TaskFinished(o models.Outcome)
	Log(level, format string, args ...interface{})
	Done(s models.Summary, elapsed time.Duration)
}
