package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

func orGlobal(l Logger) Logger {
	if l == nil {
		return GetLogger()
	}
	return l
}

// LogHarvestProgress logs how many result URLs a query has produced so far.
// A nil logger selects the global one.
func LogHarvestProgress(l Logger, query string, collected, max, page int) {
	percentage := 0.0
	if max > 0 {
		percentage = float64(collected) / float64(max) * 100
	}

	orGlobal(l).WithFields(map[string]interface{}{
		"query":      query,
		"collected":  collected,
		"max":        max,
		"page":       page,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Debug("Harvest progress")
}

// LogDownload logs the outcome of a single fetch
func LogDownload(l Logger, url, path string, size int64, duration time.Duration, err error) {
	logger := orGlobal(l).WithFields(map[string]interface{}{
		"url":      url,
		"duration": duration,
	})

	if err != nil {
		logger.WithError(err).Warn("Download failed")
		return
	}
	logger.WithFields(map[string]interface{}{
		"path": path,
		"size": size,
	}).Debug("Download completed")
}

// LogRateLimit records how long a component waited for its limiter
func LogRateLimit(l Logger, component string, wait time.Duration) {
	orGlobal(l).WithFields(map[string]interface{}{
		"component": component,
		"wait":      wait,
	}).Debug("Throttled by rate limit")
}

// LogComponentStart announces a component run with its settings
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	orGlobal(l).WithField("component", component).InfoWithFields("Component started", settings)
}

// LogComponentStop announces the end of a component run
func LogComponentStop(l Logger, component, reason string) {
	orGlobal(l).WithField("component", component).InfoWithFields("Component stopped", map[string]interface{}{"reason": reason})
}

// LogMetrics records the counters of a finished operation under a
// "metrics" type so they can be filtered out of the stream
func LogMetrics(l Logger, operation string, metrics map[string]interface{}) {
	fields := make(map[string]interface{}, len(metrics)+2)
	for k, v := range metrics {
		fields[k] = v
	}
	fields["operation"] = operation
	fields["type"] = "metrics"
	orGlobal(l).InfoWithFields("Operation metrics", fields)
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
