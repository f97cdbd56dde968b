package downloader

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "linkharvest/pkg/errors"
	"linkharvest/pkg/logger"
	"linkharvest/pkg/retry"
)

func TestHTTPTransportStreamsBody(t *testing.T) {
	var ua string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte("%PDF-1.4 body"))
	}))
	defer server.Close()

	tr := NewHTTPTransport(WithUserAgent("test-agent"), WithTransportLogger(logger.NewNopLogger()))

	var buf bytes.Buffer
	n, err := tr.Fetch(context.Background(), server.URL+"/a.pdf", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len("%PDF-1.4 body")), n)
	assert.Equal(t, "%PDF-1.4 body", buf.String())
	assert.Equal(t, "test-agent", ua)
}

func TestHTTPTransportStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	tr := NewHTTPTransport(WithTransportLogger(logger.NewNopLogger()))

	var buf bytes.Buffer
	_, err := tr.Fetch(context.Background(), server.URL+"/missing.pdf", &buf)
	require.Error(t, err)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeHTTPStatus, typed.Type)
	assert.Equal(t, http.StatusNotFound, typed.Code)
	assert.Zero(t, buf.Len())
}

func TestHTTPTransportRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	tr := NewHTTPTransport(
		WithTransportLogger(logger.NewNopLogger()),
		WithRetry(&retry.Config{MaxAttempts: 3, Backoff: &retry.ExponentialBackoff{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}}),
	)

	var buf bytes.Buffer
	_, err := tr.Fetch(context.Background(), server.URL, &buf)
	require.NoError(t, err)
	assert.Equal(t, "ok", buf.String())
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPTransportDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	tr := NewHTTPTransport(
		WithTransportLogger(logger.NewNopLogger()),
		WithRetry(&retry.Config{MaxAttempts: 3, Backoff: &retry.ExponentialBackoff{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}}),
	)

	_, err := tr.Fetch(context.Background(), server.URL, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	tr := NewHTTPTransport(WithTimeout(50*time.Millisecond), WithTransportLogger(logger.NewNopLogger()))

	_, err := tr.Fetch(context.Background(), server.URL, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPTransportNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	tr := NewHTTPTransport(WithTransportLogger(logger.NewNopLogger()))
	_, err := tr.Fetch(context.Background(), addr, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNetwork))
}
