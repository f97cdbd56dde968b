package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkharvest/pkg/config"
	errs "linkharvest/pkg/errors"
	"linkharvest/pkg/ratelimit"
	"linkharvest/pkg/scraper"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestUrlsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	text := "see https://example.com/a.pdf and mailto:me@example.com\nagain https://example.com/a.pdf\n"
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))

	out, err := execute(t, "urls", "--web", "--unique", "--no-color", path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.pdf\n", out)
}

func TestLanguagesCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out, err := execute(t, "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "German")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(errs.Newf(errs.ErrorTypeConfiguration, "harvest", "bad max")))
	assert.Equal(t, 2, exitCode(fmt.Errorf("%w for %q", scraper.ErrCheckpointExists, "q")))
	assert.Equal(t, 130, exitCode(context.Canceled))
	assert.Equal(t, 1, exitCode(errs.Newf(errs.ErrorTypeNavigation, "navigate", "timeout")))
}

func TestSessionLimiter(t *testing.T) {
	cfg := config.DefaultConfig()
	_, unlimited := sessionLimiter(cfg).(ratelimit.Unlimited)
	assert.True(t, unlimited)

	cfg.Harvest.RequestsPerMinute = 10
	_, windowed := sessionLimiter(cfg).(*ratelimit.SlidingWindow)
	assert.True(t, windowed)

	cfg.Harvest.BurstSize = 3
	l := sessionLimiter(cfg)
	_, bucket := l.(*ratelimit.TokenBucket)
	require.True(t, bucket)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow())
	}
	assert.False(t, l.Allow())
}
