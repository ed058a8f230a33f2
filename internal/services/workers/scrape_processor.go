package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/waskita-api/internal/metrics"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/apify"
	"github.com/killallgit/waskita-api/internal/services/jobs"
	"github.com/killallgit/waskita-api/internal/services/mapping"
	"github.com/killallgit/waskita-api/internal/services/normalizer"
	"github.com/killallgit/waskita-api/internal/services/progress"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
)

// abortTimeout bounds the remote abort issued after a cancel or timeout
const abortTimeout = 15 * time.Second

// Stager holds normalized results until a column mapping is chosen
type Stager interface {
	Stage(ctx context.Context, candidates []normalizer.Candidate, sc mapping.StageContext) (string, error)
}

// ScrapeProcessor runs one scrape job end to end: start the remote run, wait for it,
// fetch and normalize the items, then stage them for column mapping
type ScrapeProcessor struct {
	jobService jobs.Service
	client     apify.JobClient
	stager     Stager
	datasets   mapping.DatasetReader
	wait       apify.WaitOptions
	now        func() time.Time
	log        logger.Logger
}

// NewScrapeProcessor creates a scrape processor. datasets may be nil.
func NewScrapeProcessor(jobService jobs.Service, client apify.JobClient, stager Stager, datasets mapping.DatasetReader, wait apify.WaitOptions, log logger.Logger) *ScrapeProcessor {
	if log == nil {
		log = logger.NewNop()
	}
	return &ScrapeProcessor{
		jobService: jobService,
		client:     client,
		stager:     stager,
		datasets:   datasets,
		wait:       wait,
		now:        time.Now,
		log:        log.With(logger.String("processor", "scrape")),
	}
}

// CanProcess returns true for every supported scrape platform
func (p *ScrapeProcessor) CanProcess(job *models.ScrapeJob) bool {
	return models.IsScrapePlatform(job.Platform)
}

// ProcessJob processes a claimed scrape job. Errors are left for the worker to record.
func (p *ScrapeProcessor) ProcessJob(ctx context.Context, job *models.ScrapeJob) (err error) {
	defer func() {
		if err != nil {
			metrics.ScrapeJobs.WithLabelValues(job.Platform, string(models.JobStatusFailed)).Inc()
		}
	}()
	log := p.log.With(logger.Uint("job_id", job.ID), logger.String("platform", job.Platform))

	req := apify.StartRequest{
		Platform:       job.Platform,
		Keyword:        job.Keyword,
		DateFrom:       job.DateFrom,
		DateTo:         job.DateTo,
		MaxResults:     job.MaxResults,
		PlatformParams: job.Params,
	}
	if err := req.Normalize(); err != nil {
		return err
	}

	run, err := p.client.StartJob(ctx, req)
	if err != nil {
		return err
	}
	if err := p.jobService.MarkRunning(ctx, job.ID, run.ID); err != nil {
		p.abort(ctx, run.ID)
		return err
	}
	log = log.With(logger.String("run_id", run.ID))
	log.Info("Scrape run started")

	opts := p.wait
	opts.OnStatus = func(s *apify.RunStatus) {
		if err := p.jobService.UpdateRemoteStatus(ctx, job.ID, s.Status, p.estimate(s)); err != nil {
			log.Warn("Failed to record remote status", logger.Error(err))
		}
	}
	opts.Cancelled = func() bool {
		requested, err := p.jobService.IsCancelRequested(ctx, job.ID)
		if err != nil {
			log.Warn("Failed to check cancellation", logger.Error(err))
			return false
		}
		return requested
	}

	if last, err := p.client.WaitForCompletion(ctx, run.ID, opts); err != nil {
		if errors.Is(err, apify.ErrRunCancelled) {
			return p.cancel(ctx, job, run.ID)
		}
		// a retry starts a fresh run, so a run still going remotely must not be left behind
		if last == nil || !models.IsTerminalRunStatus(last.Status) {
			p.abort(ctx, run.ID)
		}
		return err
	}

	items, err := p.client.FetchResults(ctx, run.ID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return apperrors.NoDataError(job.Platform, job.Keyword)
	}
	if opts.Cancelled() {
		return p.cancel(ctx, job, run.ID)
	}

	candidates := normalizer.Normalize(items, job.Platform)
	token, err := p.stager.Stage(ctx, candidates, mapping.StageContext{
		JobID:       job.ID,
		DatasetID:   job.DatasetID,
		DatasetName: p.datasetName(ctx, job.DatasetID),
		OwnerID:     job.OwnerID,
		Platform:    job.Platform,
		Keyword:     job.Keyword,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		RunID:       run.ID,
	})
	if err != nil {
		return err
	}
	if err := p.jobService.MarkStaged(ctx, job.ID, token, len(items)); err != nil {
		return err
	}

	metrics.ScrapeJobs.WithLabelValues(job.Platform, string(models.JobStatusStaged)).Inc()
	log.Info("Scrape job staged", logger.Int("items", len(items)))
	return nil
}

func (p *ScrapeProcessor) estimate(s *apify.RunStatus) int {
	switch {
	case models.IsTerminalRunStatus(s.Status):
		return 100
	case s.Status == models.RunStatusRunning && s.StartedAt != nil:
		return int(progress.EstimatePercentage(p.now().Sub(*s.StartedAt)))
	default:
		return 0
	}
}

func (p *ScrapeProcessor) cancel(ctx context.Context, job *models.ScrapeJob, runID string) error {
	p.abort(ctx, runID)
	if err := p.jobService.MarkCancelled(context.WithoutCancel(ctx), job.ID); err != nil {
		return fmt.Errorf("marking job cancelled: %w", err)
	}
	metrics.ScrapeJobs.WithLabelValues(job.Platform, string(models.JobStatusCancelled)).Inc()
	return nil
}

// abort stops the remote run so it stops consuming credit; failures are only logged
func (p *ScrapeProcessor) abort(ctx context.Context, runID string) {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
	defer cancel()
	if err := p.client.AbortRun(actx, runID); err != nil {
		p.log.Warn("Failed to abort scrape run", logger.String("run_id", runID), logger.Error(err))
	}
}

func (p *ScrapeProcessor) datasetName(ctx context.Context, id uint) string {
	if p.datasets == nil {
		return ""
	}
	d, err := p.datasets.GetDataset(ctx, id)
	if err != nil {
		return ""
	}
	return d.Name
}
