package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"linkharvest/internal/downloader"
	"linkharvest/pkg/browser"
	"linkharvest/pkg/checkpoint"
	"linkharvest/pkg/config"
	errs "linkharvest/pkg/errors"
	"linkharvest/pkg/harvester"
	"linkharvest/pkg/language"
	"linkharvest/pkg/logger"
	"linkharvest/pkg/metadata"
	"linkharvest/pkg/models"
	"linkharvest/pkg/ratelimit"
	"linkharvest/pkg/retry"
	"linkharvest/pkg/ui"
)

// ErrCheckpointExists is returned when a query has an unfinished
// checkpoint and the request neither resumes nor restarts it
var ErrCheckpointExists = errors.New("checkpoint exists")

// Harvester collects the result URLs of a list of queries
type Harvester interface {
	HarvestAll(ctx context.Context, queries []string, max int, languageCode string, emit func(models.QueryResult)) ([]models.QueryResult, error)
}

// Options configures a Scraper. Config is required; the other fields
// have defaults built from it.
type Options struct {
	Config *config.Config
	// Harvester overrides the harvester built over Session
	Harvester Harvester
	Session   browser.Session
	// Transport overrides the HTTP transport of the downloader
	Transport downloader.Transport
	// Dashboard creates the display of one batch; nil shows nothing
	Dashboard func(label string, total int) ui.Dashboard
	Notifier  *ui.Notifier
	Logger    logger.Logger
}

// Request describes a download job over search queries
type Request struct {
	Queries []string
	// Language is a display name resolved through the language table
	Language     string
	Resume       bool
	ForceRestart bool
}

// BatchReport describes one downloaded batch
type BatchReport struct {
	Label string
	// Skipped counts URLs saved by an earlier run of the same checkpoint
	Skipped int
	Batch   *downloader.Batch
}

// Report is the result of a job
type Report struct {
	Batches []BatchReport
	// Failures lists the queries whose results could not be harvested
	Failures []models.QueryResult
	// Manifest is the path of the written manifest, if any
	Manifest string
}

// Summary adds up every batch
func (r *Report) Summary() models.Summary {
	var s models.Summary
	for _, b := range r.Batches {
		if b.Batch == nil {
			continue
		}
		bs := b.Batch.Summary()
		s.Succeeded += bs.Succeeded
		s.Failed += bs.Failed
		s.Bytes += bs.Bytes
	}
	return s
}

// Scraper runs harvest and download jobs
type Scraper struct {
	config    *config.Config
	harvester Harvester
	download  downloader.Options
	dashboard func(label string, total int) ui.Dashboard
	notifier  *ui.Notifier
	logger    logger.Logger
}

// New creates a Scraper
func New(opts Options) (*Scraper, error) {
	if opts.Config == nil {
		return nil, errs.Newf(errs.ErrorTypeConfiguration, "new scraper", "configuration is required")
	}
	cfg := opts.Config

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	h := opts.Harvester
	if h == nil {
		if opts.Session == nil {
			return nil, errs.Newf(errs.ErrorTypeConfiguration, "new scraper", "a harvester or a browser session is required")
		}
		h = harvester.New(opts.Session, HarvesterOptions(cfg, log))
	}

	transport := opts.Transport
	if transport == nil {
		retryCfg := retry.DefaultConfig()
		retryCfg.MaxAttempts = cfg.Download.RetryAttempts
		retryCfg.Logger = log
		transport = downloader.NewHTTPTransport(
			downloader.WithUserAgent(cfg.Search.UserAgent),
			downloader.WithTimeout(cfg.Download.DownloadTimeout),
			downloader.WithRetry(retryCfg),
			downloader.WithTransportLogger(log),
		)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = ui.NewNotifier(cfg.Notifications.Enabled, cfg.Notifications.NotificationType)
	}

	return &Scraper{
		config:    cfg,
		harvester: h,
		download: downloader.Options{
			Transport: transport,
			Limiter:   ratelimit.PerMinute(cfg.Download.RequestsPerMinute),
			Extension: cfg.Download.Extension,
			Logger:    log,
		},
		dashboard: opts.Dashboard,
		notifier:  notifier,
		logger:    log.WithField("component", "scraper"),
	}, nil
}

// HarvesterOptions maps the search and harvest settings onto the
// harvester. An unproductive budget of zero in the configuration turns the
// check off.
func HarvesterOptions(cfg *config.Config, log logger.Logger) harvester.Options {
	budget := cfg.Harvest.UnproductiveBudget
	if budget == 0 {
		budget = -1
	}
	return harvester.Options{
		PacingDelay:        cfg.Harvest.PacingDelay,
		UnproductiveBudget: budget,
		NextLabel:          cfg.Search.NextLabel,
		EngineKeyword:      cfg.Search.EngineKeyword,
		URLBuilder: language.URLBuilder{
			BaseURL:           cfg.Search.BaseURL,
			InterfaceLanguage: cfg.Search.InterfaceLanguage,
		},
		Logger: log,
	}
}

// ResolveLanguage returns the code of a language display name using the
// configured table. An empty name yields an empty code.
func ResolveLanguage(cfg *config.Config, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	table, err := language.Load(cfg.Search.LanguageTable)
	if err != nil {
		return "", err
	}
	return table.Resolve(name)
}

type queryJob struct {
	query   string
	mgr     *checkpoint.Manager
	cp      *checkpoint.Checkpoint
	resumed bool
}

// DownloadQueries harvests every query with the configured prefix and
// downloads its results. Queries that fail to harvest are reported and
// skipped; invalid settings and cancellation stop the job.
func (s *Scraper) DownloadQueries(ctx context.Context, req Request) (*Report, error) {
	code, err := ResolveLanguage(s.config, req.Language)
	if err != nil {
		return nil, err
	}
	max := s.config.Harvest.MaxResults

	var (
		jobs    []*queryJob
		pending = make(map[string]*queryJob)
		toFetch []string
	)
	for _, q := range req.Queries {
		if strings.TrimSpace(q) == "" {
			continue
		}
		query := language.WithPrefix(s.config.Download.QueryPrefix, q)
		if _, dup := pending[query]; dup {
			continue
		}

		job, err := s.prepare(query, code, req)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
		pending[query] = job
		if job.cp == nil {
			toFetch = append(toFetch, query)
		}
	}
	if len(jobs) == 0 {
		return nil, errs.Newf(errs.ErrorTypeConfiguration, "download", "no query given")
	}

	report := &Report{}
	if len(toFetch) > 0 {
		failures, err := s.harvester.HarvestAll(ctx, toFetch, max, code, func(r models.QueryResult) {
			if ctx.Err() != nil {
				return
			}
			job := pending[r.Query.Text]
			if job == nil {
				return
			}
			cp, err := job.mgr.Create(r.Query.Text, code, max, r.URLs)
			if err != nil {
				s.logger.WithError(err).Warn("Failed to save checkpoint, continuing without it")
				cp = &checkpoint.Checkpoint{Query: r.Query.Text, Language: code, Max: max, Harvested: r.URLs, Downloaded: map[string]string{}}
				job.mgr = nil
			}
			job.cp = cp
		})
		report.Failures = failures
		if err != nil {
			return report, err
		}
	}

	var manifest *metadata.Manifest
	if s.config.Download.WriteManifest {
		manifest = s.openManifest(strings.Join(req.Queries, "; "), code)
	}

	for _, job := range jobs {
		if job.cp == nil {
			continue
		}

		urls := job.cp.Remaining()
		skipped := len(job.cp.Harvested) - len(urls)
		if job.resumed {
			s.logger.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
				"query":      job.query,
				"harvested":  len(job.cp.Harvested),
				"downloaded": skipped,
			})
		}

		batch, err := s.runBatch(ctx, job.query, urls, job.resumed)
		if batch != nil {
			report.Batches = append(report.Batches, BatchReport{Label: job.query, Skipped: skipped, Batch: batch})
			s.record(job, batch.Outcomes)
			if manifest != nil {
				manifest.Add(batch.Outcomes)
			}
		}
		if err != nil {
			s.saveManifest(manifest, report)
			return report, err
		}
		if err := ctx.Err(); err != nil {
			s.saveManifest(manifest, report)
			return report, err
		}
	}

	s.saveManifest(manifest, report)
	s.notify(report)
	return report, nil
}

// DownloadURLs downloads an explicit list of URLs without harvesting or
// checkpointing. label names the batch in the dashboard and manifest.
func (s *Scraper) DownloadURLs(ctx context.Context, label string, urls []string) (*Report, error) {
	if len(urls) == 0 {
		return nil, errs.Newf(errs.ErrorTypeConfiguration, "download", "no URL given")
	}

	report := &Report{}
	batch, err := s.runBatch(ctx, label, urls, false)
	if batch != nil {
		report.Batches = append(report.Batches, BatchReport{Label: label, Batch: batch})
		if s.config.Download.WriteManifest {
			m := s.openManifest(label, "")
			m.Add(batch.Outcomes)
			s.saveManifest(m, report)
		}
	}
	if err != nil {
		return report, err
	}
	s.notify(report)
	return report, nil
}

func (s *Scraper) prepare(query, code string, req Request) (*queryJob, error) {
	mgr, err := checkpoint.NewManager(query, code)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	job := &queryJob{query: query, mgr: mgr}

	if !mgr.Exists() {
		return job, nil
	}
	switch {
	case req.ForceRestart:
		if err := mgr.Delete(); err != nil {
			s.logger.WithError(err).Warn("Failed to delete existing checkpoint")
		}
		s.logger.WithField("query", query).Info("Ignoring existing checkpoint")
	case req.Resume:
		cp, err := mgr.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		job.cp = cp
		job.resumed = cp != nil
	default:
		return nil, fmt.Errorf("%w for %q", ErrCheckpointExists, query)
	}
	return job, nil
}

func (s *Scraper) record(job *queryJob, outcomes []models.Outcome) {
	if job.mgr == nil {
		return
	}
	if err := job.mgr.RecordOutcomes(job.cp, outcomes); err != nil {
		s.logger.WithError(err).Warn("Failed to update checkpoint")
		return
	}
	if job.cp.Complete() {
		if err := job.mgr.Delete(); err != nil {
			s.logger.WithError(err).Warn("Failed to delete finished checkpoint")
		}
	}
}

// runBatch downloads urls into the output directory. A dashboard that can
// be started runs next to the batch; quitting it cancels the batch.
func (s *Scraper) runBatch(ctx context.Context, label string, urls []string, skipExisting bool) (*downloader.Batch, error) {
	dir := s.config.Download.OutputDirectory
	limit := s.config.Download.ConcurrentDownloads

	opts := s.download
	opts.SkipExisting = skipExisting

	var dash ui.Dashboard
	if s.dashboard != nil {
		dash = s.dashboard(label, len(urls))
	}
	if dash != nil {
		opts.OnStart = dash.TaskStarted
		opts.OnProgress = func(p downloader.Progress) { dash.TaskFinished(p.Last) }
	}
	d := downloader.New(opts)

	r, interactive := dash.(interface {
		Start() error
		Stop()
	})
	if !interactive {
		batch, err := d.Run(ctx, urls, dir, limit)
		if err == nil && dash != nil {
			dash.Done(batch.Summary(), batch.Elapsed)
		}
		return batch, err
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	var batch *downloader.Batch
	g.Go(func() error {
		defer cancel()
		return r.Start()
	})
	g.Go(func() error {
		b, err := d.Run(runCtx, urls, dir, limit)
		if err != nil {
			r.Stop()
			return err
		}
		batch = b
		dash.Done(b.Summary(), b.Elapsed)
		return nil
	})
	err := g.Wait()
	return batch, err
}

func (s *Scraper) openManifest(query, code string) *metadata.Manifest {
	dir := s.config.Download.OutputDirectory
	if metadata.Exists(dir) {
		m, err := metadata.Load(dir)
		if err == nil {
			return m
		}
		s.logger.WithError(err).Warn("Existing manifest is unreadable, starting a new one")
	}
	return metadata.New(query, code)
}

func (s *Scraper) saveManifest(m *metadata.Manifest, report *Report) {
	if m == nil {
		return
	}
	path, err := m.Save(s.config.Download.OutputDirectory)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to write manifest")
		return
	}
	report.Manifest = path
}

func (s *Scraper) notify(report *Report) {
	sum := report.Summary()
	msg := fmt.Sprintf("%d saved, %d failed, %s", sum.Succeeded, sum.Failed, ui.FormatBytes(sum.Bytes))
	if sum.Failed > 0 || len(report.Failures) > 0 {
		if s.config.Notifications.OnError {
			s.notifier.SendError("Download finished with errors", msg)
		}
		return
	}
	if s.config.Notifications.OnComplete {
		s.notifier.SendSuccess("Download complete", msg)
	}
}
