package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/killallgit/waskita-api/internal/metrics"
	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
)

const (
	DefaultMaxRetries = 2
	DefaultRetryDelay = 30 * time.Second
)

type service struct {
	repo       Repository
	retryDelay time.Duration
	log        logger.Logger
}

// NewService creates a scrape job service. retryDelay is the base of the exponential
// backoff applied before a failed job is claimed again.
func NewService(repo Repository, retryDelay time.Duration, log logger.Logger) Service {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &service{
		repo:       repo,
		retryDelay: retryDelay,
		log:        log.With(logger.String("service", "jobs")),
	}
}

func (s *service) Enqueue(ctx context.Context, req EnqueueRequest, opts ...JobOption) (*models.ScrapeJob, error) {
	cfg := &jobConfig{MaxRetries: DefaultMaxRetries}
	for _, opt := range opts {
		opt(cfg)
	}
	if !models.IsScrapePlatform(req.Platform) {
		return nil, apperrors.ValidationError("platform", fmt.Sprintf("unsupported platform %q", req.Platform))
	}
	if strings.TrimSpace(req.Keyword) == "" {
		return nil, apperrors.ValidationError("keyword", "keyword is required")
	}
	if req.DatasetID == 0 {
		return nil, apperrors.ValidationError("dataset_id", "a target dataset is required")
	}

	job := &models.ScrapeJob{
		Platform:   req.Platform,
		Keyword:    strings.TrimSpace(req.Keyword),
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		MaxResults: req.MaxResults,
		Params:     req.Params,
		DatasetID:  req.DatasetID,
		OwnerID:    req.OwnerID,
		Status:     models.JobStatusPending,
		MaxRetries: cfg.MaxRetries,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, apperrors.DatabaseError("create scrape job", err)
	}

	s.log.Debug("Enqueued scrape job",
		logger.Uint("job_id", job.ID),
		logger.String("platform", job.Platform),
		logger.String("keyword", job.Keyword))
	return job, nil
}

func (s *service) Get(ctx context.Context, jobID uint) (*models.ScrapeJob, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, s.mapError(err, jobID, "get scrape job")
	}
	return job, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]models.ScrapeJob, int64, error) {
	jobs, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, apperrors.DatabaseError("list scrape jobs", err)
	}
	return jobs, total, nil
}

func (s *service) IsCancelRequested(ctx context.Context, jobID uint) (bool, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return false, s.mapError(err, jobID, "get scrape job")
	}
	return job.CancelRequested, nil
}

func (s *service) ClaimNext(ctx context.Context, workerID string) (*models.ScrapeJob, error) {
	job, err := s.repo.ClaimNext(ctx, workerID, s.retryDelay)
	if err != nil {
		if errors.Is(err, ErrNoJobsAvailable) {
			return nil, err
		}
		return nil, fmt.Errorf("claiming job: %w", err)
	}

	s.log.Debug("Claimed scrape job",
		logger.String("worker_id", workerID),
		logger.Uint("job_id", job.ID),
		logger.Int("retry", job.RetryCount))
	return job, nil
}

func (s *service) MarkRunning(ctx context.Context, jobID uint, runID string) error {
	err := s.repo.Transition(ctx, jobID, []models.JobStatus{models.JobStatusRunning}, map[string]interface{}{
		"run_id":        runID,
		"remote_status": models.RunStatusReady,
	})
	if err != nil {
		return s.mapError(err, jobID, "record run id")
	}
	return nil
}

func (s *service) UpdateRemoteStatus(ctx context.Context, jobID uint, remoteStatus string, progress int) error {
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}
	err := s.repo.Transition(ctx, jobID, []models.JobStatus{models.JobStatusRunning}, map[string]interface{}{
		"remote_status": remoteStatus,
		"progress":      progress,
	})
	if err != nil {
		return s.mapError(err, jobID, "update remote status")
	}
	return nil
}

func (s *service) MarkStaged(ctx context.Context, jobID uint, token string, itemCount int) error {
	err := s.repo.Transition(ctx, jobID, []models.JobStatus{models.JobStatusRunning}, map[string]interface{}{
		"status":        models.JobStatusStaged,
		"pending_token": token,
		"item_count":    itemCount,
		"progress":      100,
		"remote_status": models.RunStatusSucceeded,
		"worker_id":     "",
	})
	if err != nil {
		return s.mapError(err, jobID, "stage scrape job")
	}
	s.log.Info("Scrape results staged", logger.Uint("job_id", jobID), logger.Int("items", itemCount))
	return nil
}

func (s *service) MarkCancelled(ctx context.Context, jobID uint) error {
	now := time.Now()
	err := s.repo.Transition(ctx, jobID, []models.JobStatus{models.JobStatusRunning, models.JobStatusPending}, map[string]interface{}{
		"status":      models.JobStatusCancelled,
		"worker_id":   "",
		"finished_at": &now,
	})
	if err != nil {
		return s.mapError(err, jobID, "cancel scrape job")
	}
	s.log.Info("Scrape job cancelled", logger.Uint("job_id", jobID))
	return nil
}

// Fail records err on a running job. The error code decides whether the job may be retried.
func (s *service) Fail(ctx context.Context, jobID uint, cause error) error {
	code := apperrors.GetCode(cause)
	now := time.Now()
	err := s.repo.Transition(ctx, jobID, []models.JobStatus{models.JobStatusRunning}, map[string]interface{}{
		"status":         models.JobStatusFailed,
		"error_code":     string(code),
		"error":          cause.Error(),
		"worker_id":      "",
		"finished_at":    &now,
		"last_failed_at": &now,
	})
	if err != nil {
		return s.mapError(err, jobID, "fail scrape job")
	}

	job, _ := s.repo.GetByID(ctx, jobID)
	if job != nil && job.IsRetryable() {
		s.log.Warn("Scrape job failed, will retry",
			logger.Uint("job_id", jobID),
			logger.String("code", string(code)),
			logger.Int("retry", job.RetryCount),
			logger.Int("max_retries", job.MaxRetries),
			logger.Error(cause))
	} else {
		s.log.Error("Scrape job failed permanently",
			logger.Uint("job_id", jobID),
			logger.String("code", string(code)),
			logger.Error(cause))
	}
	return nil
}

// Cancel stops a job and returns it with any staged token that must be released
func (s *service) Cancel(ctx context.Context, jobID uint) (*models.ScrapeJob, string, error) {
	job, token, err := s.repo.Cancel(ctx, jobID)
	if err != nil {
		return nil, "", s.mapError(err, jobID, "cancel scrape job")
	}
	if job.Status == models.JobStatusRunning {
		s.log.Info("Cancellation requested for running scrape job", logger.Uint("job_id", jobID))
	} else {
		metrics.ScrapeJobs.WithLabelValues(job.Platform, string(models.JobStatusCancelled)).Inc()
	}
	return job, token, nil
}

func (s *service) MarkCommitted(ctx context.Context, jobID uint) error {
	now := time.Now()
	err := s.repo.Transition(ctx, jobID, []models.JobStatus{models.JobStatusStaged}, map[string]interface{}{
		"status":        models.JobStatusCommitted,
		"pending_token": "",
		"finished_at":   &now,
	})
	if err != nil {
		return s.mapError(err, jobID, "commit scrape job")
	}
	return nil
}

// FailInterrupted fails jobs a previous process left running. Call before workers start.
func (s *service) FailInterrupted(ctx context.Context) (int64, error) {
	n, err := s.repo.FailRunning(ctx, apperrors.ErrCodeTransientNetwork, "interrupted by a service restart")
	if err != nil {
		return 0, apperrors.DatabaseError("fail interrupted jobs", err)
	}
	if n > 0 {
		s.log.Warn("Failed interrupted scrape jobs", logger.Int64("count", n))
	}
	return n, nil
}

func (s *service) CleanupOld(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, apperrors.ValidationError("retention", "retention must be positive")
	}
	deleted, err := s.repo.DeleteFinishedBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, apperrors.DatabaseError("clean up old jobs", err)
	}
	if deleted > 0 {
		s.log.Info("Deleted old scrape jobs", logger.Int64("count", deleted), logger.Duration("retention", retention))
	}
	return deleted, nil
}

func (s *service) mapError(err error, jobID uint, op string) error {
	switch {
	case errors.Is(err, ErrJobNotFound):
		return apperrors.NotFound("scrape job", jobID)
	case errors.Is(err, ErrInvalidTransition):
		return apperrors.Conflict("scrape job", fmt.Sprintf("job %d cannot %s in its current state", jobID, op))
	default:
		return apperrors.DatabaseError(op, err)
	}
}
