package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkharvest/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: make(map[string]interface{})}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "lh.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewWithWriter(tt.cfg, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestFileOutputReceivesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lh.log")
	l, err := NewWithWriter(&config.LoggingConfig{Level: "info", File: path}, &bytes.Buffer{})
	require.NoError(t, err)

	l.WithField("query", "golang").Info("query finished")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"query":"golang"`)
	assert.Contains(t, string(data), `"app":"linkharvest"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "warn"}, &buf)
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	base := newBufferLogger(&buf)

	base.
		WithField("field1", "value1").
		WithFields(map[string]interface{}{"field2": 2}).
		WithError(errors.New("boom")).
		Info("chained fields")

	out := buf.String()
	assert.Contains(t, out, "chained fields")
	assert.Contains(t, out, `"field1":"value1"`)
	assert.Contains(t, out, `"field2":2`)
	assert.Contains(t, out, `"error":"boom"`)

	// The parent is not mutated by its children
	buf.Reset()
	base.Info("plain")
	assert.False(t, strings.Contains(buf.String(), "field1"))
}

func TestStructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.WarnWithFields("download failed", map[string]interface{}{
		"url":    "https://example.com/a.pdf",
		"worker": 3,
		"ok":     false,
	})

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"url":"https://example.com/a.pdf"`)
	assert.Contains(t, out, `"worker":3`)
	assert.Contains(t, out, `"ok":false`)
}

func TestGlobalLogger(t *testing.T) {
	test := NewTestLogger()
	SetLogger(test)
	defer SetLogger(NewNopLogger())

	Info("info message")
	WithField("component", "downloader").Warn("with field")
	LogComponentStart(nil, "harvester", map[string]interface{}{"max": 5})
	LogDownload(nil, "https://example.com/a.pdf", "", 0, 0, errors.New("timeout"))

	assert.True(t, test.HasMessage("info message"))
	warns := test.GetMessagesByLevel("WARN")
	require.Len(t, warns, 2)
	assert.Equal(t, "downloader", warns[0].Fields["component"])
	assert.Equal(t, "timeout", warns[1].Fields["error"])
	assert.True(t, test.HasMessage("Component started"))
}

func TestTestLoggerSharesRecorder(t *testing.T) {
	l := NewTestLogger()
	child := l.WithField("query", "golang")
	child.Info("from child")
	l.Error("from parent")

	msgs := l.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "golang", msgs[0].Fields["query"])
	assert.True(t, l.HasError())
	assert.Contains(t, l.String(), "[INFO] from child")

	l.Clear()
	assert.Empty(t, l.GetMessages())
}
