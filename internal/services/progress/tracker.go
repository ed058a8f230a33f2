// Package progress turns remote run states into progress reports for polling clients.
//
// The percentage reported while a run is RUNNING is an estimate derived from elapsed
// wall-clock time against a fixed expected duration. It is not a measurement and is
// capped below 100 until the run is observed to be terminal.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/apify"
	"github.com/killallgit/waskita-api/pkg/logger"
)

// StatusError is the pseudo-status reported when the run could not be looked up
const StatusError = "ERROR"

// Estimation constants
const (
	ExpectedRunDuration = 90 * time.Second
	RunningCap          = 95.0
)

var statusMessages = map[string]string{
	models.RunStatusReady:     "Preparing the scrape...",
	models.RunStatusRunning:   "Scraping data...",
	models.RunStatusSucceeded: "Scrape finished successfully!",
	models.RunStatusFailed:    "Scrape failed, please try again.",
	models.RunStatusAborting:  "Scrape is being cancelled.",
	models.RunStatusAborted:   "Scrape was cancelled.",
	models.RunStatusTimingOut: "Scrape is timing out.",
	models.RunStatusTimedOut:  "Scrape timed out.",
	StatusError:               "An error occurred while checking progress.",
}

const unknownStatusMessage = "Unknown status"

// StatusMessage returns the human readable message for a raw run status
func StatusMessage(status string) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return unknownStatusMessage
}

// StatusSource is the subset of the job client the tracker reads from
type StatusSource interface {
	PollStatus(ctx context.Context, runID string) (*apify.RunStatus, error)
	CountResults(ctx context.Context, runID string) (int, error)
}

// Progress is the normalized report for one run
type Progress struct {
	RunID                  string     `json:"run_id"`
	Status                 string     `json:"status"`
	ProgressPercentage     float64    `json:"progress_percentage"`
	ItemsProcessed         int        `json:"items_processed"`
	EstimatedRemaining     *float64   `json:"estimated_time_remaining,omitempty"` // seconds
	TimeRemainingFormatted string     `json:"time_remaining_formatted,omitempty"`
	Elapsed                *float64   `json:"elapsed_time,omitempty"` // seconds
	StatusMessage          string     `json:"status_message"`
	StartedAt              *time.Time `json:"started_at,omitempty"`
	FinishedAt             *time.Time `json:"finished_at,omitempty"`
	// Estimated is true when ProgressPercentage came from the elapsed-time heuristic
	Estimated bool   `json:"estimated"`
	Error     string `json:"error,omitempty"`
}

// Tracker computes progress reports
type Tracker struct {
	source StatusSource
	now    func() time.Time
	log    logger.Logger
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides the wall clock used for elapsed-time estimates
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the tracker logger
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// NewTracker creates a tracker reading from source
func NewTracker(source StatusSource, opts ...Option) *Tracker {
	t := &Tracker{
		source: source,
		now:    time.Now,
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// GetProgress never fails: lookup errors yield the ERROR pseudo-status at 0%
func (t *Tracker) GetProgress(ctx context.Context, runID string) Progress {
	status, err := t.source.PollStatus(ctx, runID)
	if err != nil {
		t.log.Warn("Progress lookup failed", logger.String("run_id", runID), logger.Error(err))
		return Progress{
			RunID:         runID,
			Status:        StatusError,
			StatusMessage: StatusMessage(StatusError),
			Error:         err.Error(),
		}
	}
	return t.FromStatus(ctx, status)
}

// FromStatus builds a report from an already polled status
func (t *Tracker) FromStatus(ctx context.Context, status *apify.RunStatus) Progress {
	p := Progress{
		RunID:         status.ID,
		Status:        status.Status,
		StatusMessage: StatusMessage(status.Status),
		StartedAt:     status.StartedAt,
		FinishedAt:    status.FinishedAt,
	}

	switch status.Status {
	case models.RunStatusRunning:
		if status.StartedAt == nil {
			break
		}
		elapsed := t.now().Sub(*status.StartedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		p.ProgressPercentage = EstimatePercentage(elapsed)
		remaining := ExpectedRunDuration - elapsed
		if remaining < 0 {
			remaining = 0
		}
		elapsedSecs := elapsed.Seconds()
		remainingSecs := remaining.Seconds()
		p.Elapsed = &elapsedSecs
		p.EstimatedRemaining = &remainingSecs
		if remaining > 0 {
			p.TimeRemainingFormatted = FormatRemaining(remaining)
		}
		p.Estimated = true

	case models.RunStatusSucceeded:
		p.ProgressPercentage = 100
		// best effort, from dataset metadata only
		if n, err := t.source.CountResults(ctx, status.ID); err == nil {
			p.ItemsProcessed = n
		} else {
			t.log.Debug("Could not count run results", logger.String("run_id", status.ID), logger.Error(err))
		}
	}

	return p
}

// EstimatePercentage maps elapsed time onto 0..RunningCap
func EstimatePercentage(elapsed time.Duration) float64 {
	pct := elapsed.Seconds() / ExpectedRunDuration.Seconds() * 100
	if pct > RunningCap {
		return RunningCap
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// FormatRemaining renders "Xm Ys" above one minute and "Xs" otherwise
func FormatRemaining(d time.Duration) string {
	secs := int(d.Seconds())
	if secs > 60 {
		return fmt.Sprintf("%dm %ds", secs/60, secs%60)
	}
	return fmt.Sprintf("%ds", secs)
}
