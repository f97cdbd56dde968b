package downloader

import (
	"context"
	"fmt"
	"sync"

	"linkharvest/pkg/logger"
	"linkharvest/pkg/models"
)

// Job is one URL of a batch, identified by its position in the input
type Job struct {
	Index int
	URL   string
}

// Result pairs a job with its outcome
type Result struct {
	Job     Job
	Outcome models.Outcome
}

// Handler processes one job on behalf of worker
type Handler func(ctx context.Context, job Job, worker int) models.Outcome

// WorkerPool runs a fixed number of workers over a job queue
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	handler     Handler
	logger      logger.Logger
}

// NewWorkerPool creates a pool of numWorkers workers bound to ctx. Results
// must be drained for the workers to make progress.
func NewWorkerPool(ctx context.Context, numWorkers int, handler Handler, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		handler:     handler,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for every queued job to finish and closes
// the result channel
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	default:
	}

	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the channel carrying one Result per processed job
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// Size returns the number of workers
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// QueueSize returns the number of jobs waiting for a worker
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}

// worker processes jobs until the queue is closed. Jobs still queued after
// cancellation are handed to the handler, which reports them as failed.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		outcome := wp.handler(wp.ctx, job, id)
		wp.resultQueue <- Result{Job: job, Outcome: outcome}
	}
}
