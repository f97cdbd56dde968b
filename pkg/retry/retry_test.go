package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "linkharvest/pkg/errors"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{6, time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, d, 140*time.Millisecond)
		assert.LessOrEqual(t, d, 260*time.Millisecond)
	}
}

func flatBackoff(d time.Duration) *ExponentialBackoff {
	return &ExponentialBackoff{BaseDelay: d, MaxDelay: d, Multiplier: 1}
}

func fastConfig(attempts int) *Config {
	return &Config{
		MaxAttempts: attempts,
		Backoff:     flatBackoff(time.Millisecond),
		RetryIf:     func(error) bool { return true },
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	persistent := errors.New("persistent error")
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return persistent
	}, fastConfig(3))

	require.Error(t, err)
	assert.ErrorIs(t, err, persistent)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.Equal(t, 3, attempts)
}

func TestDoSingleAttemptReturnsErrorUnwrapped(t *testing.T) {
	failure := errors.New("connection refused")
	err := Do(context.Background(), func(ctx context.Context) error {
		return failure
	}, fastConfig(1))

	assert.Equal(t, failure, err)
}

func TestDoNonRetryableError(t *testing.T) {
	attempts := 0
	notFound := errs.New(errs.ErrorTypeHTTPStatus, "fetch", errors.New("404 Not Found")).WithCode(404)

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return notFound
	}, &Config{MaxAttempts: 5, Backoff: flatBackoff(time.Millisecond)})

	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, 1, attempts)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("temporary")
	}, &Config{
		MaxAttempts: 5,
		Backoff:     flatBackoff(time.Second),
		RetryIf:     func(error) bool { return true },
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"network", errs.New(errs.ErrorTypeNetwork, "fetch", errors.New("reset")), true},
		{"503", errs.New(errs.ErrorTypeHTTPStatus, "fetch", errors.New("unavailable")).WithCode(503), true},
		{"404", errs.New(errs.ErrorTypeHTTPStatus, "fetch", errors.New("missing")).WithCode(404), false},
		{"wrapped network", errs.New(errs.ErrorTypeDownload, "fetch", errs.New(errs.ErrorTypeNetwork, "get", errors.New("eof"))), true},
		{"filesystem", errs.New(errs.ErrorTypeFilesystem, "write", errors.New("disk full")), false},
		{"cancelled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRetryIf(tt.err))
		})
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	n, err := DoWithResult(context.Background(), func(ctx context.Context) (int64, error) {
		attempts++
		if attempts == 1 {
			return 0, errors.New("first try fails")
		}
		return 42, nil
	}, fastConfig(2))

	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
