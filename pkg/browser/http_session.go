package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	errs "linkharvest/pkg/errors"
	"linkharvest/pkg/logger"
	"linkharvest/pkg/ratelimit"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// page is the document currently shown in the tab
type page struct {
	url   *url.URL
	title string
	doc   *goquery.Document
}

// HTTPSession implements Session with plain HTTP requests and goquery. It
// has exactly one tab and runs no scripts, which is enough for result pages
// that render their links server side.
type HTTPSession struct {
	client          *http.Client
	userAgent       string
	timeout         time.Duration
	limiter         ratelimit.Limiter
	unwrapRedirects bool
	logger          logger.Logger

	mu      sync.Mutex
	current *page
	pending *url.URL
}

// Option configures an HTTPSession
type Option func(*HTTPSession)

// WithHTTPClient sets the client used for page loads
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPSession) { s.client = c }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(s *HTTPSession) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithNavigationTimeout bounds each page load; zero means no bound
func WithNavigationTimeout(d time.Duration) Option {
	return func(s *HTTPSession) { s.timeout = d }
}

// WithLimiter throttles page loads
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *HTTPSession) {
		if l != nil {
			s.limiter = l
		}
	}
}

// WithRedirectUnwrapping makes Href return the target of search engine
// redirect links such as /url?q=https://example.com/
func WithRedirectUnwrapping(enabled bool) Option {
	return func(s *HTTPSession) { s.unwrapRedirects = enabled }
}

// WithLogger sets the session logger
func WithLogger(l logger.Logger) Option {
	return func(s *HTTPSession) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewHTTPSession creates a session with an empty tab
func NewHTTPSession(opts ...Option) *HTTPSession {
	s := &HTTPSession{
		client:    &http.Client{},
		userAgent: defaultUserAgent,
		limiter:   ratelimit.Unlimited{},
		logger:    logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "browser")
	return s
}

// CurrentURL returns the URL of the loaded page, or "" before the first navigation
func (s *HTTPSession) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.url.String()
}

// Title returns the title of the loaded page
func (s *HTTPSession) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.title
}

// SelectTab succeeds when the only tab matches namePattern. An empty pattern
// or "*" matches any tab, including one that has not loaded a page yet.
// Other patterns are case-insensitive globs or substrings of title or URL.
func (s *HTTPSession) SelectTab(ctx context.Context, namePattern string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pattern := strings.ToLower(strings.TrimSpace(namePattern))
	if pattern == "" || pattern == "*" {
		return nil
	}

	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()

	if cur != nil {
		for _, candidate := range []string{cur.title, cur.url.String()} {
			c := strings.ToLower(candidate)
			if ok, _ := path.Match(pattern, c); ok || strings.Contains(c, pattern) {
				return nil
			}
		}
	}
	return errs.Newf(errs.ErrorTypeSession, "select tab", "no tab matches %q", namePattern)
}

// Navigate loads rawURL into the tab
func (s *HTTPSession) Navigate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return errs.Newf(errs.ErrorTypeNavigation, "navigate", "invalid url %q", rawURL).WithURL(rawURL)
	}
	return s.load(ctx, u)
}

func (s *HTTPSession) load(ctx context.Context, u *url.URL) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return errs.New(errs.ErrorTypeNavigation, "navigate", err).WithURL(u.String())
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errs.New(errs.ErrorTypeNavigation, "navigate", err).WithURL(u.String())
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en")

	resp, err := s.client.Do(req)
	if err != nil {
		return errs.New(errs.ErrorTypeNavigation, "navigate",
			errs.New(errs.ErrorTypeNetwork, "get", err)).WithURL(u.String())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errs.Newf(errs.ErrorTypeNavigation, "navigate", "unexpected status %s", resp.Status).
			WithURL(u.String()).
			WithCode(resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return errs.New(errs.ErrorTypeNavigation, "navigate",
			errs.New(errs.ErrorTypeParsing, "parse html", err)).WithURL(u.String())
	}

	final := resp.Request.URL
	p := &page{
		url:   final,
		title: strings.TrimSpace(doc.Find("title").First().Text()),
		doc:   doc,
	}

	s.mu.Lock()
	s.current = p
	s.pending = nil
	s.mu.Unlock()

	s.logger.DebugWithFields("Page loaded", map[string]interface{}{
		"url":      final.String(),
		"title":    p.title,
		"duration": time.Since(start),
	})
	return nil
}

// EvaluateDomQuery evaluates expr against every element matching selector
func (s *HTTPSession) EvaluateDomQuery(ctx context.Context, selector string, expr Expression) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cur, err := s.page("evaluate dom query")
	if err != nil {
		return nil, err
	}

	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeSession, "evaluate dom query",
			fmt.Errorf("invalid selector %q: %w", selector, err))
	}

	values := []string{}
	var evalErr error
	cur.doc.FindMatcher(matcher).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		v, err := s.evaluate(cur, sel, expr)
		if err != nil {
			evalErr = err
			return false
		}
		values = append(values, v)
		return true
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return values, nil
}

func (s *HTTPSession) evaluate(cur *page, sel *goquery.Selection, expr Expression) (string, error) {
	switch expr.Kind {
	case KindHref:
		raw, ok := sel.Attr("href")
		if !ok {
			return "", nil
		}
		return s.resolveHref(cur.url, raw), nil
	case KindAttr:
		v, _ := sel.Attr(expr.Name)
		return v, nil
	case KindText:
		return strings.TrimSpace(sel.Text()), nil
	default:
		return "", errs.Newf(errs.ErrorTypeSession, "evaluate dom query", "unsupported expression %s", expr)
	}
}

// resolveHref mirrors the href property of an anchor: the attribute
// resolved against the page URL. Unparseable values are returned verbatim.
func (s *HTTPSession) resolveHref(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	abs := base.ResolveReference(ref)
	if s.unwrapRedirects {
		if target, ok := unwrapRedirect(base, abs); ok {
			return target
		}
	}
	return abs.String()
}

// unwrapRedirect returns the destination of a same-host /url redirect link
func unwrapRedirect(base, link *url.URL) (string, bool) {
	if !strings.EqualFold(link.Host, base.Host) || link.Path != "/url" {
		return "", false
	}
	q := link.Query()
	for _, key := range []string{"q", "url"} {
		if target := q.Get(key); target != "" {
			if t, err := url.Parse(target); err == nil && t.IsAbs() {
				return target, true
			}
		}
	}
	return "", false
}

// ClickElementByText looks for an anchor whose text or aria-label equals
// text, falling back to one whose text contains it, and arms
// WaitForNavigation with its target
func (s *HTTPSession) ClickElementByText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cur, err := s.page("click")
	if err != nil {
		return err
	}

	want := strings.ToLower(strings.TrimSpace(text))
	var exact, partial *goquery.Selection
	cur.doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		label := strings.ToLower(strings.Join(strings.Fields(a.Text()), " "))
		aria := strings.ToLower(strings.TrimSpace(a.AttrOr("aria-label", "")))
		switch {
		case label == want || aria == want:
			exact = a
			return false
		case partial == nil && want != "" && strings.Contains(label, want):
			partial = a
		}
		return true
	})

	target := exact
	if target == nil {
		target = partial
	}
	if target == nil {
		return errs.Newf(errs.ErrorTypeNavigation, "click", "no link with text %q", text).WithURL(cur.url.String())
	}

	href, _ := target.Attr("href")
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return errs.New(errs.ErrorTypeNavigation, "click", err).WithURL(cur.url.String())
	}

	s.mu.Lock()
	s.pending = cur.url.ResolveReference(ref)
	s.mu.Unlock()
	return nil
}

// WaitForNavigation loads the target armed by ClickElementByText
func (s *HTTPSession) WaitForNavigation(ctx context.Context) error {
	s.mu.Lock()
	target := s.pending
	s.pending = nil
	s.mu.Unlock()

	if target == nil {
		return errs.Newf(errs.ErrorTypeNavigation, "wait for navigation", "no navigation in progress")
	}
	return s.load(ctx, target)
}

func (s *HTTPSession) page(op string) (*page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, errs.Newf(errs.ErrorTypeSession, op, "no page loaded")
	}
	return s.current, nil
}
