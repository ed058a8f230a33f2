package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/jobs"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
)

// JobProcessor processes claimed scrape jobs
type JobProcessor interface {
	ProcessJob(ctx context.Context, job *models.ScrapeJob) error
	CanProcess(job *models.ScrapeJob) bool
}

// Worker represents a background worker that processes jobs
type Worker struct {
	id           string
	jobService   jobs.Service
	processors   []JobProcessor
	stopChan     chan struct{}
	wg           sync.WaitGroup
	pollInterval time.Duration
	log          logger.Logger
}

// NewWorker creates a new worker instance
func NewWorker(id string, jobService jobs.Service, pollInterval time.Duration, log logger.Logger) *Worker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Worker{
		id:           id,
		jobService:   jobService,
		processors:   make([]JobProcessor, 0),
		stopChan:     make(chan struct{}),
		pollInterval: pollInterval,
		log:          log.With(logger.String("worker_id", id)),
	}
}

// RegisterProcessor registers a job processor
func (w *Worker) RegisterProcessor(processor JobProcessor) {
	w.processors = append(w.processors, processor)
}

// Start starts the worker in a goroutine
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the worker and waits for the job in progress
func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	w.log.Info("Worker starting")
	defer w.log.Info("Worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			if err := w.processNextJob(ctx); err != nil {
				w.log.Warn("Error processing job", logger.Error(err))
			}
		}
	}
}

// processNextJob claims and processes the next available job.
// It returns nil when there is nothing to do.
func (w *Worker) processNextJob(ctx context.Context) error {
	if len(w.processors) == 0 {
		return fmt.Errorf("no job processors registered")
	}

	job, err := w.jobService.ClaimNext(ctx, w.id)
	if err != nil {
		if errors.Is(err, jobs.ErrNoJobsAvailable) {
			return nil
		}
		return err
	}

	var processor JobProcessor
	for _, p := range w.processors {
		if p.CanProcess(job) {
			processor = p
			break
		}
	}

	if processor == nil {
		err = apperrors.ConfigurationError("processing", fmt.Sprintf("no processor handles %s jobs", job.Platform))
	} else {
		err = processor.ProcessJob(ctx, job)
	}
	if err != nil {
		// the job must be marked failed even while shutting down
		if failErr := w.jobService.Fail(context.WithoutCancel(ctx), job.ID, err); failErr != nil {
			w.log.Error("Failed to mark job as failed", logger.Uint("job_id", job.ID), logger.Error(failErr))
		}
		return fmt.Errorf("job %d: %w", job.ID, err)
	}

	w.log.Debug("Completed job", logger.Uint("job_id", job.ID))
	return nil
}

// WorkerPool manages multiple workers
type WorkerPool struct {
	workers    []*Worker
	jobService jobs.Service
	mu         sync.RWMutex
	started    bool
	log        logger.Logger
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(jobService jobs.Service, workerCount int, pollInterval time.Duration, log logger.Logger) *WorkerPool {
	if log == nil {
		log = logger.NewNop()
	}
	if workerCount < 1 {
		workerCount = 1
	}
	pool := &WorkerPool{
		jobService: jobService,
		workers:    make([]*Worker, workerCount),
		log:        log,
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewWorker(fmt.Sprintf("worker-%d", i+1), jobService, pollInterval, log)
	}
	return pool
}

// RegisterProcessor registers a processor with all workers
func (p *WorkerPool) RegisterProcessor(processor JobProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, worker := range p.workers {
		worker.RegisterProcessor(processor)
	}
}

// Start starts all workers
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool already started")
	}

	p.log.Info("Starting worker pool", logger.Int("workers", len(p.workers)))
	for _, worker := range p.workers {
		worker.Start(ctx)
	}

	p.started = true
	return nil
}

// Stop stops all workers gracefully
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.log.Info("Stopping worker pool")
	for _, worker := range p.workers {
		worker.Stop()
	}
	p.started = false
}
