package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository errors
var (
	ErrJobNotFound       = errors.New("job not found")
	ErrNoJobsAvailable   = errors.New("no jobs available")
	ErrInvalidTransition = errors.New("job is not in a state that allows this change")
)

// retryCandidates bounds how many failed jobs are inspected per claim
const retryCandidates = 10

// Repository defines the interface for scrape job persistence
type Repository interface {
	Create(ctx context.Context, job *models.ScrapeJob) error
	GetByID(ctx context.Context, id uint) (*models.ScrapeJob, error)
	List(ctx context.Context, filters ListFilters) ([]models.ScrapeJob, int64, error)

	ClaimNext(ctx context.Context, workerID string, retryDelay time.Duration) (*models.ScrapeJob, error)
	Transition(ctx context.Context, id uint, from []models.JobStatus, updates map[string]interface{}) error
	Cancel(ctx context.Context, id uint) (*models.ScrapeJob, string, error)

	FailRunning(ctx context.Context, code apperrors.ErrorCode, msg string) (int64, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new scrape job repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, job *models.ScrapeJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*models.ScrapeJob, error) {
	var job models.ScrapeJob
	if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return &job, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.ScrapeJob, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ScrapeJob{})
	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting jobs: %w", err)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var jobs []models.ScrapeJob
	if err := query.Order("created_at DESC, id DESC").Find(&jobs).Error; err != nil {
		return nil, 0, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, total, nil
}

// ClaimNext atomically claims the oldest pending job, or failing that a failed job
// whose retry backoff has elapsed
func (r *repository) ClaimNext(ctx context.Context, workerID string, retryDelay time.Duration) (*models.ScrapeJob, error) {
	var job models.ScrapeJob

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ? AND cancel_requested = ?", models.JobStatusPending, false).
			Order("created_at ASC, id ASC").
			First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			found, ferr := claimableRetry(tx, retryDelay)
			if ferr != nil {
				return ferr
			}
			if found == nil {
				return ErrNoJobsAvailable
			}
			job = *found
			err = nil
		}
		if err != nil {
			return fmt.Errorf("finding job to claim: %w", err)
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":        models.JobStatusRunning,
			"worker_id":     workerID,
			"started_at":    &now,
			"progress":      0,
			"remote_status": "",
			"run_id":        "",
		}
		if job.Status == models.JobStatusFailed {
			updates["retry_count"] = job.RetryCount + 1
			updates["error_code"] = ""
			updates["error"] = ""
			job.RetryCount++
		}
		if err := tx.Model(&job).Updates(updates).Error; err != nil {
			return fmt.Errorf("updating claimed job: %w", err)
		}

		job.Status = models.JobStatusRunning
		job.WorkerID = workerID
		job.StartedAt = &now
		job.Progress = 0
		job.RemoteStatus = ""
		job.RunID = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func claimableRetry(tx *gorm.DB, retryDelay time.Duration) (*models.ScrapeJob, error) {
	var failed []models.ScrapeJob
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND cancel_requested = ? AND retry_count < max_retries AND error_code IN ?",
			models.JobStatusFailed, false,
			[]string{string(apperrors.ErrCodeRateLimited), string(apperrors.ErrCodeTransientNetwork)}).
		Order("last_failed_at ASC, id ASC").
		Limit(retryCandidates).
		Find(&failed).Error
	if err != nil {
		return nil, fmt.Errorf("finding retryable jobs: %w", err)
	}
	for i := range failed {
		if failed[i].CanRetryNow(retryDelay) {
			return &failed[i], nil
		}
	}
	return nil, nil
}

// Transition applies updates only while the job is in one of the from states
func (r *repository) Transition(ctx context.Context, id uint, from []models.JobStatus, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.ScrapeJob{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

// Cancel stops a job. Pending, staged and failed jobs are cancelled at once; a running
// job is flagged so its worker aborts the remote run. The staged pending token, if any,
// is returned so the caller can release it.
func (r *repository) Cancel(ctx context.Context, id uint) (*models.ScrapeJob, string, error) {
	var job models.ScrapeJob
	var token string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&job, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return fmt.Errorf("finding job to cancel: %w", err)
		}

		switch job.Status {
		case models.JobStatusCancelled:
			return nil
		case models.JobStatusCommitted:
			return ErrInvalidTransition
		case models.JobStatusRunning:
			job.CancelRequested = true
			return tx.Model(&models.ScrapeJob{}).Where("id = ?", job.ID).Update("cancel_requested", true).Error
		default:
			token = job.PendingToken
			now := time.Now()
			job.Status = models.JobStatusCancelled
			job.CancelRequested = true
			job.FinishedAt = &now
			job.PendingToken = ""
			return tx.Model(&models.ScrapeJob{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
				"status":           models.JobStatusCancelled,
				"cancel_requested": true,
				"finished_at":      &now,
				"pending_token":    "",
			}).Error
		}
	})
	if err != nil {
		return nil, "", err
	}
	return &job, token, nil
}

// FailRunning fails every job left running, used when no worker can still own them
func (r *repository) FailRunning(ctx context.Context, code apperrors.ErrorCode, msg string) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.ScrapeJob{}).
		Where("status = ?", models.JobStatusRunning).
		Updates(map[string]interface{}{
			"status":         models.JobStatusFailed,
			"error_code":     string(code),
			"error":          msg,
			"worker_id":      "",
			"finished_at":    &now,
			"last_failed_at": &now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failing running jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteFinishedBefore removes jobs that can no longer change and were last touched before cutoff.
// Staged jobs are included since their pending token has long expired by then.
func (r *repository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("updated_at < ?", cutoff).
		Where("status IN ?", []models.JobStatus{
			models.JobStatusCommitted,
			models.JobStatusFailed,
			models.JobStatusCancelled,
			models.JobStatusStaged,
		}).
		Delete(&models.ScrapeJob{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting old jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
