package jobs

import (
	"context"
	"time"

	"github.com/killallgit/waskita-api/internal/models"
)

// Service defines the business logic interface for scrape job operations
type Service interface {
	// Enqueue operations
	Enqueue(ctx context.Context, req EnqueueRequest, opts ...JobOption) (*models.ScrapeJob, error)

	// Status and retrieval
	Get(ctx context.Context, jobID uint) (*models.ScrapeJob, error)
	List(ctx context.Context, filters ListFilters) ([]models.ScrapeJob, int64, error)
	IsCancelRequested(ctx context.Context, jobID uint) (bool, error)

	// Worker operations (used by worker pool)
	ClaimNext(ctx context.Context, workerID string) (*models.ScrapeJob, error)
	MarkRunning(ctx context.Context, jobID uint, runID string) error
	UpdateRemoteStatus(ctx context.Context, jobID uint, remoteStatus string, progress int) error
	MarkStaged(ctx context.Context, jobID uint, token string, itemCount int) error
	MarkCancelled(ctx context.Context, jobID uint) error
	Fail(ctx context.Context, jobID uint, err error) error

	// Caller operations
	Cancel(ctx context.Context, jobID uint) (*models.ScrapeJob, string, error)
	MarkCommitted(ctx context.Context, jobID uint) error

	// Maintenance
	FailInterrupted(ctx context.Context) (int64, error)
	CleanupOld(ctx context.Context, retention time.Duration) (int64, error)
}

// EnqueueRequest describes the scrape a job should run
type EnqueueRequest struct {
	Platform   string
	Keyword    string
	DateFrom   string
	DateTo     string
	MaxResults int
	Params     map[string]any
	DatasetID  uint
	OwnerID    uint
}

// ListFilters narrows List results
type ListFilters struct {
	OwnerID *uint
	Status  models.JobStatus
	Limit   int
	Offset  int
}

// JobOption is a functional option for configuring jobs
type JobOption func(*jobConfig)

type jobConfig struct {
	MaxRetries int
}

// WithMaxRetries sets how many times a job failing with a retryable error is picked up again
func WithMaxRetries(retries int) JobOption {
	return func(cfg *jobConfig) {
		if retries >= 0 {
			cfg.MaxRetries = retries
		}
	}
}
