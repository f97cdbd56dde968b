package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "linkharvest/pkg/errors"
	"linkharvest/pkg/logger"
	"linkharvest/pkg/retry"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "linkharvest/1.0"

// Transport streams the body behind a URL into w
type Transport interface {
	Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, rawURL string, w io.Writer) (int64, error)

func (f TransportFunc) Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	return f(ctx, rawURL, w)
}

// HTTPTransport fetches with GET. Connection failures and retryable status
// codes are retried before any byte is written; a failure while streaming
// the body is returned as is.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	retry     *retry.Config
	logger    logger.Logger
}

// TransportOption configures an HTTPTransport
type TransportOption func(*HTTPTransport)

// WithClient replaces the HTTP client
func WithClient(c *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) TransportOption {
	return func(t *HTTPTransport) {
		if ua != "" {
			t.userAgent = ua
		}
	}
}

// WithTimeout bounds a single fetch including the body transfer. Zero means no limit.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *HTTPTransport) { t.timeout = d }
}

// WithRetry sets the retry policy for establishing the response
func WithRetry(cfg *retry.Config) TransportOption {
	return func(t *HTTPTransport) {
		if cfg != nil {
			t.retry = cfg
		}
	}
}

// WithTransportLogger sets the logger
func WithTransportLogger(l logger.Logger) TransportOption {
	return func(t *HTTPTransport) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewHTTPTransport creates a transport making a single attempt per fetch
func NewHTTPTransport(opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
		logger:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.retry == nil {
		t.retry = retry.DefaultConfig()
		t.retry.Logger = t.logger
	}
	return t
}

func (t *HTTPTransport) Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	resp, err := retry.DoWithResult(ctx, func(ctx context.Context) (*http.Response, error) {
		return t.get(ctx, rawURL)
	}, t.retry)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		return n, errs.New(errs.ErrorTypeDownload, "stream body", err).WithURL(rawURL)
	}
	return n, nil
}

func (t *HTTPTransport) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeDownload, "build request", err).WithURL(rawURL)
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.New(errs.ErrorTypeNetwork, "get", err).WithURL(rawURL)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, errs.New(errs.ErrorTypeHTTPStatus, "get", fmt.Errorf("unexpected status %s", resp.Status)).
			WithURL(rawURL).
			WithCode(resp.StatusCode)
	}
	return resp, nil
}
