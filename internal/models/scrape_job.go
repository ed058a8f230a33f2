package models

import (
	"time"

	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus represents the local lifecycle of a scrape job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"   // waiting for a worker
	JobStatusRunning   JobStatus = "running"   // remote run started, being polled
	JobStatusStaged    JobStatus = "staged"    // results normalized and waiting for a mapping
	JobStatusCommitted JobStatus = "committed" // mapping applied, records written
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Remote run statuses reported by the scraping service
const (
	RunStatusReady     = "READY"
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
	RunStatusAborting  = "ABORTING"
	RunStatusAborted   = "ABORTED"
	RunStatusTimedOut  = "TIMED-OUT"
	RunStatusTimingOut = "TIMING-OUT"
)

// IsTerminalRunStatus reports whether the remote run will not change status again
func IsTerminalRunStatus(status string) bool {
	switch status {
	case RunStatusSucceeded, RunStatusFailed, RunStatusAborted, RunStatusTimedOut:
		return true
	}
	return false
}

// ScrapeJob tracks one requested scrape from enqueue to commit
type ScrapeJob struct {
	gorm.Model
	Platform   string            `json:"platform" gorm:"not null;size:32"`
	Keyword    string            `json:"keyword" gorm:"not null;size:255"`
	DateFrom   string            `json:"date_from" gorm:"size:10"`
	DateTo     string            `json:"date_to" gorm:"size:10"`
	MaxResults int               `json:"max_results" gorm:"not null"`
	Params     datatypes.JSONMap `json:"params,omitempty"`

	DatasetID uint `json:"dataset_id" gorm:"not null;index"`
	OwnerID   uint `json:"owner_id" gorm:"not null;default:0;index"`

	Status       JobStatus `json:"status" gorm:"not null;size:16;default:'pending';index:idx_scrape_jobs_status"`
	RunID        string    `json:"run_id,omitempty" gorm:"size:64;index"`
	RemoteStatus string    `json:"remote_status,omitempty" gorm:"size:16"`
	Progress     int       `json:"progress" gorm:"default:0"` // 0-100, estimated while running
	ItemCount    int       `json:"item_count" gorm:"default:0"`
	PendingToken string    `json:"pending_token,omitempty" gorm:"size:64"`

	WorkerID        string     `json:"worker_id,omitempty" gorm:"size:64"`
	MaxRetries      int        `json:"max_retries" gorm:"default:2"`
	RetryCount      int        `json:"retry_count" gorm:"default:0"`
	CancelRequested bool       `json:"cancel_requested" gorm:"not null;default:false"`
	StartedAt       *time.Time `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at"`
	LastFailedAt    *time.Time `json:"last_failed_at"`

	ErrorCode string `json:"error_code,omitempty" gorm:"size:32"`
	Error     string `json:"error,omitempty" gorm:"type:text"`
}

// TableName returns the table name for ScrapeJob
func (ScrapeJob) TableName() string {
	return "scrape_jobs"
}

// IsTerminal returns true once the job will not be picked up again
func (j *ScrapeJob) IsTerminal() bool {
	return j.Status == JobStatusCommitted ||
		j.Status == JobStatusCancelled ||
		(j.Status == JobStatusFailed && !j.IsRetryable())
}

// IsRetryable returns true if a failed job still has attempts left
func (j *ScrapeJob) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries && isRetryableCode(j.ErrorCode)
}

// CanRetryNow applies exponential backoff: minDelay * 2^retryCount since the last failure
func (j *ScrapeJob) CanRetryNow(minDelay time.Duration) bool {
	if !j.IsRetryable() {
		return false
	}
	if j.LastFailedAt == nil {
		return true
	}
	backoff := minDelay * time.Duration(1<<uint(j.RetryCount))
	return time.Since(*j.LastFailedAt) >= backoff
}

// isRetryableCode reports whether a stored error code allows another attempt
func isRetryableCode(code string) bool {
	switch apperrors.ErrorCode(code) {
	case apperrors.ErrCodeRateLimited, apperrors.ErrCodeTransientNetwork:
		return true
	}
	return false
}

// GetParamString safely retrieves a string platform parameter
func (j *ScrapeJob) GetParamString(key string) (string, bool) {
	if j.Params == nil {
		return "", false
	}
	s, ok := j.Params[key].(string)
	return s, ok
}

// GetParamInt safely retrieves an int platform parameter
func (j *ScrapeJob) GetParamInt(key string) (int, bool) {
	if j.Params == nil {
		return 0, false
	}
	// JSON numbers decode as float64
	switch v := j.Params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
