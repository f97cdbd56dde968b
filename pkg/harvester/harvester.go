package harvester

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"linkharvest/pkg/browser"
	errs "linkharvest/pkg/errors"
	"linkharvest/pkg/language"
	"linkharvest/pkg/logger"
	"linkharvest/pkg/models"
	"linkharvest/pkg/retry"
)

const (
	// FailureBudget is the number of consecutive failed pagination attempts
	// tolerated; the next failure ends the query
	FailureBudget = 3
	// PacingDelay separates consecutive scans of the session
	PacingDelay = time.Second
	// DefaultUnproductiveBudget ends a query after this many consecutive
	// scans that added no new URL
	DefaultUnproductiveBudget = 5
)

// State of the pagination loop
type State int

const (
	StateScanning State = iota
	StatePaginating
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StatePaginating:
		return "paginating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// StopReason tells why a query stopped collecting
type StopReason string

const (
	StopMaxReached         StopReason = "max reached"
	StopFailureBudget      StopReason = "failure budget exhausted"
	StopUnproductiveBudget StopReason = "unproductive budget exhausted"
	StopCancelled          StopReason = "cancelled"
)

// Progress is reported after every scan
type Progress struct {
	Query     string
	Page      int
	Collected int
	Max       int
	State     State
}

// Options configures a Harvester. Zero values select the defaults.
type Options struct {
	// PacingDelay overrides the delay between scans
	PacingDelay time.Duration
	// UnproductiveBudget bounds consecutive scans adding nothing; negative disables it
	UnproductiveBudget int
	NextLabel          string
	EngineKeyword      string
	// TabPattern, when set, selects the session tab before each query
	TabPattern string
	URLBuilder language.URLBuilder
	// Scanner replaces the session based LinkScanner
	Scanner    LinkScanner
	OnProgress func(Progress)
	Logger     logger.Logger
	// Sleep replaces the pacing wait, mainly for tests
	Sleep func(ctx context.Context, d time.Duration) error
}

// Result describes one harvested query
type Result struct {
	Query              string
	SearchURL          string
	URLs               []string
	Pages              int
	PaginationFailures int
	Stop               StopReason
}

// Harvester collects result URLs from a paginated search through one
// browser session. It is not safe for concurrent use because the session
// is a single tab.
type Harvester struct {
	session browser.Session
	scanner LinkScanner
	filter  *Filter
	opts    Options
	logger  logger.Logger
}

// New creates a Harvester driving session
func New(session browser.Session, opts Options) *Harvester {
	if opts.PacingDelay <= 0 {
		opts.PacingDelay = PacingDelay
	}
	if opts.UnproductiveBudget == 0 {
		opts.UnproductiveBudget = DefaultUnproductiveBudget
	}
	if opts.NextLabel == "" {
		opts.NextLabel = DefaultNextLabel
	}
	if opts.EngineKeyword == "" {
		opts.EngineKeyword = "google"
	}
	if opts.URLBuilder.BaseURL == "" {
		opts.URLBuilder.BaseURL = language.DefaultSearchURL
	}
	if opts.URLBuilder.InterfaceLanguage == "" {
		opts.URLBuilder.InterfaceLanguage = language.DefaultInterfaceLanguage
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Wait
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}

	scanner := opts.Scanner
	if scanner == nil {
		scanner = NewSessionScanner(session, opts.NextLabel)
	}

	var hosts []string
	if u, err := url.Parse(opts.URLBuilder.BaseURL); err == nil {
		hosts = append(hosts, u.Hostname())
	}

	return &Harvester{
		session: session,
		scanner: scanner,
		filter:  NewFilter(opts.EngineKeyword, hosts...),
		opts:    opts,
		logger:  opts.Logger.WithField("component", "harvester"),
	}
}

// Harvest returns up to max unique result URLs for query in discovery order.
// languageCode is optional. Partial results are not an error; failing to
// load the first result page is.
func (h *Harvester) Harvest(ctx context.Context, query string, max int, languageCode string) ([]string, error) {
	res, err := h.HarvestQuery(ctx, query, max, languageCode)
	if res == nil {
		return nil, err
	}
	return res.URLs, err
}

// HarvestQuery is Harvest with the details of how the query ended. On
// cancellation the URLs collected so far are returned with ctx's error.
func (h *Harvester) HarvestQuery(ctx context.Context, query string, max int, languageCode string) (*Result, error) {
	if max < 1 {
		return nil, errs.Newf(errs.ErrorTypeConfiguration, "harvest", "max must be at least 1, got %d", max)
	}
	searchURL, err := h.opts.URLBuilder.Build(query, languageCode)
	if err != nil {
		return nil, err
	}

	log := h.logger.WithFields(map[string]interface{}{"query": query, "max": max})

	if h.opts.TabPattern != "" {
		if err := h.session.SelectTab(ctx, h.opts.TabPattern); err != nil {
			return nil, errs.New(errs.ErrorTypeSession, "select tab", err)
		}
	}

	log.DebugWithFields("Navigating to result page", map[string]interface{}{"url": searchURL})
	if err := h.session.Navigate(ctx, searchURL); err != nil {
		if errs.IsNavigation(err) {
			return nil, err
		}
		return nil, errs.New(errs.ErrorTypeNavigation, "navigate", err).WithURL(searchURL)
	}

	res := &Result{Query: query, SearchURL: searchURL, URLs: make([]string, 0, max), Pages: 1}
	seen := make(map[string]bool)
	failures, unproductive := 0, 0
	state := StateScanning

	for state != StateTerminated {
		if ctx.Err() != nil {
			res.Stop = StopCancelled
			break
		}

		// Scanning
		links, err := h.scanner.ScanLinks(ctx)
		if err != nil {
			log.WithError(err).WarnWithFields("Scan failed, treating page as empty", map[string]interface{}{"page": res.Pages})
			links = nil
		}

		added := 0
		for _, href := range links {
			if len(res.URLs) >= max {
				break
			}
			candidate, ok := h.filter.Accept(href)
			if !ok || seen[candidate] {
				continue
			}
			seen[candidate] = true
			res.URLs = append(res.URLs, candidate)
			added++
		}

		logger.LogHarvestProgress(log, query, len(res.URLs), max, res.Pages)
		h.report(query, res, max, state)

		if len(res.URLs) >= max {
			res.Stop = StopMaxReached
			state = StateTerminated
			continue
		}

		if added == 0 {
			unproductive++
		} else {
			unproductive = 0
		}
		if h.opts.UnproductiveBudget > 0 && unproductive >= h.opts.UnproductiveBudget {
			res.Stop = StopUnproductiveBudget
			state = StateTerminated
			continue
		}

		// Paginating
		state = StatePaginating
		if err := h.scanner.AdvancePage(ctx); err != nil {
			failures++
			res.PaginationFailures++
			log.WithError(err).DebugWithFields("Pagination failed", map[string]interface{}{
				"consecutive_failures": failures,
				"budget":               FailureBudget,
			})
			if failures > FailureBudget {
				res.Stop = StopFailureBudget
				state = StateTerminated
				continue
			}
		} else {
			failures = 0
			res.Pages++
		}

		if err := h.opts.Sleep(ctx, h.opts.PacingDelay); err != nil {
			res.Stop = StopCancelled
			break
		}
		state = StateScanning
	}

	log.InfoWithFields("Query finished", map[string]interface{}{
		"collected": len(res.URLs),
		"pages":     res.Pages,
		"reason":    string(res.Stop),
	})
	h.report(query, res, max, StateTerminated)

	if res.Stop == StopCancelled {
		return res, ctx.Err()
	}
	return res, nil
}

func (h *Harvester) report(query string, res *Result, max int, state State) {
	if h.opts.OnProgress != nil {
		h.opts.OnProgress(Progress{
			Query:     query,
			Page:      res.Pages,
			Collected: len(res.URLs),
			Max:       max,
			State:     state,
		})
	}
}

// HarvestAll runs each query in turn and hands every successful result to
// emit as soon as it completes. A failing query is logged and returned
// among the failures without stopping the batch. Invalid arguments, an
// unusable session and cancellation abort the batch.
func (h *Harvester) HarvestAll(ctx context.Context, queries []string, max int, languageCode string, emit func(models.QueryResult)) ([]models.QueryResult, error) {
	if max < 1 {
		return nil, errs.Newf(errs.ErrorTypeConfiguration, "harvest", "max must be at least 1, got %d", max)
	}

	var failures []models.QueryResult
	for _, q := range queries {
		if strings.TrimSpace(q) == "" {
			continue
		}
		query := models.SearchQuery{Text: q, Language: languageCode}

		urls, err := h.Harvest(ctx, q, max, languageCode)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if len(urls) > 0 && emit != nil {
					emit(models.QueryResult{Query: query, URLs: urls})
				}
				return failures, err
			}
			if errs.IsType(err, errs.ErrorTypeSession) || errs.IsConfiguration(err) {
				return failures, err
			}
			h.logger.WithError(err).WarnWithFields("Query failed", map[string]interface{}{"query": q})
			failures = append(failures, models.QueryResult{Query: query, Err: err})
			continue
		}
		if emit != nil {
			emit(models.QueryResult{Query: query, URLs: urls})
		}
	}
	return failures, nil
}
