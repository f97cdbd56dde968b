package downloader

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	errs "linkharvest/pkg/errors"
	"linkharvest/pkg/logger"
	"linkharvest/pkg/models"
	"linkharvest/pkg/ratelimit"
	"linkharvest/pkg/storage"
)

// DefaultConcurrency is the number of parallel fetches when none is given
const DefaultConcurrency = 64

// Progress is reported after every finished task
type Progress struct {
	Total     int
	Completed int
	Failed    int
	Bytes     int64
	Last      models.Outcome
}

// Options configures a Downloader
type Options struct {
	Transport Transport
	// Limiter throttles the start of fetches; nil means unlimited
	Limiter ratelimit.Limiter
	// Extension of the saved artifacts, ".pdf" by default
	Extension string
	// Token generates the unique part of pending names
	Token storage.TokenFunc
	// SkipExisting reuses a canonical file already in the destination
	// instead of fetching it again
	SkipExisting bool
	// OnStart is called by a worker before it fetches a URL, so it may
	// run concurrently
	OnStart func(url string, worker int)
	// OnProgress is called from a single goroutine
	OnProgress func(Progress)
	Logger     logger.Logger
}

// Batch is the result of DownloadAll with the cleanup report
type Batch struct {
	Outcomes []models.Outcome
	Cleanup  *storage.Report
	Elapsed  time.Duration
}

// Summary tallies the batch outcomes
func (b *Batch) Summary() models.Summary {
	return models.Summarize(b.Outcomes)
}

// Downloader saves batches of URLs into a directory
type Downloader struct {
	transport    Transport
	limiter      ratelimit.Limiter
	ext          string
	token        storage.TokenFunc
	skipExisting bool
	onStart      func(url string, worker int)
	onProgress   func(Progress)
	logger       logger.Logger
}

// New creates a Downloader. Without a transport a plain HTTPTransport is used.
func New(opts Options) *Downloader {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	transport := opts.Transport
	if transport == nil {
		transport = NewHTTPTransport(WithTransportLogger(log))
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	ext := opts.Extension
	if ext == "" {
		ext = ".pdf"
	}

	return &Downloader{
		transport:    transport,
		limiter:      limiter,
		ext:          ext,
		token:        opts.Token,
		skipExisting: opts.SkipExisting,
		onStart:      opts.OnStart,
		onProgress:   opts.OnProgress,
		logger:       log.WithField("component", "downloader"),
	}
}

// DownloadAll fetches every URL into destDir with at most limit fetches in
// flight and returns one outcome per URL, in input order. A limit of zero
// selects DefaultConcurrency. Individual failures are reported in the
// outcomes; the error is only set for invalid arguments or an unusable
// destination directory.
func (d *Downloader) DownloadAll(ctx context.Context, urls []string, destDir string, limit int) ([]models.Outcome, error) {
	batch, err := d.Run(ctx, urls, destDir, limit)
	if err != nil {
		return nil, err
	}
	return batch.Outcomes, nil
}

// Run is DownloadAll returning the cleanup report as well. Pending files
// are reconciled into canonical names after every worker has finished, and
// successful outcomes carry the final path.
func (d *Downloader) Run(ctx context.Context, urls []string, destDir string, limit int) (*Batch, error) {
	if limit == 0 {
		limit = DefaultConcurrency
	}
	if limit < 0 {
		return nil, errs.Newf(errs.ErrorTypeConfiguration, "download", "concurrency limit must be positive, got %d", limit)
	}

	start := time.Now()
	manager, err := storage.NewManager(destDir, storage.NewNamer(d.ext, d.token))
	if err != nil {
		return nil, err
	}

	outcomes := make([]models.Outcome, len(urls))
	if len(urls) == 0 {
		return &Batch{Outcomes: outcomes, Cleanup: &storage.Report{}}, nil
	}

	workers := limit
	if workers > len(urls) {
		workers = len(urls)
	}

	logger.LogComponentStart(d.logger, "downloader", map[string]interface{}{
		"urls":     len(urls),
		"workers":  workers,
		"dest":     destDir,
		"existing": manager.ExistingCount(),
	})

	pool := NewWorkerPool(ctx, workers, func(ctx context.Context, job Job, worker int) models.Outcome {
		return d.process(ctx, manager, job, worker)
	}, d.logger)
	pool.Start()

	var submitWG sync.WaitGroup
	submitWG.Add(1)
	go func() {
		defer submitWG.Done()
		defer pool.Stop()
		for i, u := range urls {
			if err := pool.Submit(Job{Index: i, URL: u}); err != nil {
				d.logger.WithError(err).Debug("Stopped submitting jobs")
				return
			}
		}
	}()

	done := make([]bool, len(urls))
	progress := Progress{Total: len(urls)}
	for r := range pool.Results() {
		outcomes[r.Job.Index] = r.Outcome
		done[r.Job.Index] = true

		progress.Completed++
		if r.Outcome.OK() {
			progress.Bytes += r.Outcome.Artifact.Size
		} else {
			progress.Failed++
		}
		progress.Last = r.Outcome
		d.logger.DebugWithFields("Task finished", map[string]interface{}{
			"url":       r.Outcome.URL(),
			"completed": progress.Completed,
			"queued":    pool.QueueSize(),
		})
		if d.onProgress != nil {
			d.onProgress(progress)
		}
	}
	submitWG.Wait()

	for i, ok := range done {
		if !ok {
			err := ctx.Err()
			if err == nil {
				err = errs.Newf(errs.ErrorTypeDownload, "download", "task was not scheduled")
			}
			outcomes[i] = failure(urls[i], err)
		}
	}

	report, err := manager.Reconcile()
	if err != nil {
		d.logger.WithError(err).Warn("Cleanup pass failed, files keep their pending names")
		report = &storage.Report{}
	}
	for _, e := range report.Errors {
		d.logger.WithError(e).Warn("Cleanup could not resolve a pending file")
	}
	for i := range outcomes {
		if a := outcomes[i].Artifact; a != nil {
			if final, ok := report.Resolve(a.Path); ok {
				a.Path = final
			}
		}
	}

	batch := &Batch{Outcomes: outcomes, Cleanup: report, Elapsed: time.Since(start)}
	summary := batch.Summary()
	logger.LogMetrics(d.logger, "download_batch", map[string]interface{}{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"bytes":     summary.Bytes,
		"cleanup":   report.String(),
		"elapsed":   batch.Elapsed.String(),
	})
	logger.LogComponentStop(d.logger, "downloader", "batch complete")
	return batch, nil
}

func (d *Downloader) process(ctx context.Context, manager *storage.Manager, job Job, worker int) models.Outcome {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return failure(job.URL, err)
	}

	if d.skipExisting {
		if path, ok := manager.Existing(job.URL); ok {
			var size int64
			if info, err := os.Stat(path); err == nil {
				size = info.Size()
			}
			d.logger.DebugWithFields("Reusing existing file", map[string]interface{}{"url": job.URL, "path": path})
			return models.Outcome{Artifact: &models.DownloadedArtifact{
				SourceURL: job.URL,
				Path:      path,
				Size:      size,
				WorkerID:  worker,
				Reused:    true,
			}}
		}
	}

	if !d.limiter.Allow() {
		wait := time.Now()
		if err := d.limiter.Wait(ctx); err != nil {
			return failure(job.URL, err)
		}
		logger.LogRateLimit(d.logger, "downloader", time.Since(wait))
	}

	if d.onStart != nil {
		d.onStart(job.URL, worker)
	}

	path, size, err := manager.Write(job.URL, worker, func(w io.Writer) (int64, error) {
		return d.transport.Fetch(ctx, job.URL, w)
	})
	elapsed := time.Since(start)
	logger.LogDownload(d.logger, job.URL, path, size, elapsed, err)
	if err != nil {
		return failure(job.URL, err)
	}

	return models.Outcome{Artifact: &models.DownloadedArtifact{
		SourceURL: job.URL,
		Path:      path,
		Size:      size,
		WorkerID:  worker,
		Duration:  elapsed,
	}}
}

func failure(url string, err error) models.Outcome {
	if !errs.IsType(err, errs.ErrorTypeDownload) && !errs.IsType(err, errs.ErrorTypeFilesystem) {
		err = errs.New(errs.ErrorTypeDownload, "download", err).WithURL(url)
	}
	return models.Outcome{Failure: &models.DownloadFailure{SourceURL: url, Err: err}}
}
