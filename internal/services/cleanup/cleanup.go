// Package cleanup runs periodic maintenance: orphaned record removal, old job
// pruning and the dashboard statistics refresh.
package cleanup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DefaultSchedules runs maintenance every six hours and once more at 02:00
var DefaultSchedules = []string{"0 */6 * * *", "0 2 * * *"}

// JobPruner removes finished scrape jobs
type JobPruner interface {
	CleanupOld(ctx context.Context, retention time.Duration) (int64, error)
}

// StatsRefresher recomputes the dashboard statistics
type StatsRefresher interface {
	RefreshStatistics(ctx context.Context) error
}

// Report summarizes one maintenance run
type Report struct {
	OrphanedRecords int64         `json:"orphaned_records"`
	DeletedJobs     int64         `json:"deleted_jobs"`
	Duration        time.Duration `json:"duration"`
}

// Service handles scheduled maintenance
type Service struct {
	db           *gorm.DB
	jobs         JobPruner
	stats        StatsRefresher
	schedules    []string
	jobRetention time.Duration
	parser       cron.Parser
	log          logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running sync.Mutex
}

// NewService creates a new cleanup service. jobs and stats may be nil.
func NewService(db *gorm.DB, jobs JobPruner, stats StatsRefresher, schedules []string, jobRetention time.Duration, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if len(schedules) == 0 {
		schedules = DefaultSchedules
	}
	return &Service{
		db:           db,
		jobs:         jobs,
		stats:        stats,
		schedules:    schedules,
		jobRetention: jobRetention,
		parser:       cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		log:          log.With(logger.String("service", "cleanup")),
	}
}

// Start registers every schedule and starts the cron runner
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("cleanup scheduler already started")
	}

	c := cron.New(cron.WithParser(s.parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	for _, spec := range s.schedules {
		if _, err := c.AddFunc(spec, func() { s.scheduled(ctx, spec) }); err != nil {
			return fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
		}
	}
	c.Start()
	s.cron = c

	for _, e := range c.Entries() {
		s.log.Info("Cleanup scheduled", logger.String("next_run", e.Next.Format(time.RFC3339)))
	}
	return nil
}

// Stop stops the scheduler and waits for a running maintenance pass
func (s *Service) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
		s.log.Info("Cleanup scheduler stopped")
	}
}

func (s *Service) scheduled(ctx context.Context, spec string) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error("Scheduled cleanup failed", logger.String("schedule", spec), logger.Error(err))
		return
	}
	s.log.Info("Scheduled cleanup finished",
		logger.String("schedule", spec),
		logger.Int64("orphaned_records", report.OrphanedRecords),
		logger.Int64("deleted_jobs", report.DeletedJobs))
}

// RunOnce performs one maintenance pass. Overlapping passes are serialized.
func (s *Service) RunOnce(ctx context.Context) (*Report, error) {
	s.running.Lock()
	defer s.running.Unlock()

	start := time.Now()
	report := &Report{}

	orphans, err := s.DeleteOrphanedRecords(ctx)
	if err != nil {
		return nil, err
	}
	report.OrphanedRecords = orphans

	if s.jobs != nil && s.jobRetention > 0 {
		deleted, err := s.jobs.CleanupOld(ctx, s.jobRetention)
		if err != nil {
			s.log.Warn("Failed to prune old scrape jobs", logger.Error(err))
		}
		report.DeletedJobs = deleted
	}

	if s.stats != nil && orphans > 0 {
		if err := s.stats.RefreshStatistics(ctx); err != nil {
			s.log.Warn("Failed to refresh statistics", logger.Error(err))
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

// DeleteOrphanedRecords removes raw records without a dataset, together with their
// clean records and classification results
func (s *Service) DeleteOrphanedRecords(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rawIDs []uint
		if err := tx.Model(&models.RawRecord{}).
			Where("dataset_id IS NULL OR dataset_id NOT IN (?)", tx.Model(&models.Dataset{}).Unscoped().Select("id")).
			Pluck("id", &rawIDs).Error; err != nil {
			return fmt.Errorf("finding orphaned records: %w", err)
		}
		if len(rawIDs) == 0 {
			return nil
		}

		var cleanIDs []uint
		if err := tx.Model(&models.CleanRecord{}).Where("raw_record_id IN ?", rawIDs).
			Pluck("id", &cleanIDs).Error; err != nil {
			return fmt.Errorf("finding orphaned clean records: %w", err)
		}
		if len(cleanIDs) > 0 {
			if err := tx.Unscoped().Where("data_id IN ?", cleanIDs).
				Delete(&models.ClassificationResult{}).Error; err != nil {
				return fmt.Errorf("deleting orphaned classification results: %w", err)
			}
			if err := tx.Where("id IN ?", cleanIDs).Delete(&models.CleanRecord{}).Error; err != nil {
				return fmt.Errorf("deleting orphaned clean records: %w", err)
			}
		}

		res := tx.Where("id IN ?", rawIDs).Delete(&models.RawRecord{})
		if res.Error != nil {
			return fmt.Errorf("deleting orphaned records: %w", res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("Deleted orphaned records", logger.Int64("count", deleted))
	}
	return deleted, nil
}
