package cleaning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/killallgit/waskita-api/internal/metrics"
	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope selects which clean records count as duplicates
type Scope string

const (
	// ScopeGlobal compares against every clean record in the system
	ScopeGlobal Scope = "global"
	// ScopeDataset compares only within the raw record's dataset
	ScopeDataset Scope = "dataset"
)

// ParseScope reads a scope name; empty selects def
func ParseScope(s string, def Scope) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case ScopeGlobal:
		return ScopeGlobal, nil
	case ScopeDataset:
		return ScopeDataset, nil
	}
	return "", apperrors.ValidationError("scope", fmt.Sprintf("must be %q or %q", ScopeGlobal, ScopeDataset))
}

// Skip reasons
const (
	ReasonDuplicate      = "duplicate"
	ReasonEmpty          = "empty_after_cleaning"
	ReasonAlreadyCleaned = "already_cleaned"
)

// Outcome is the result of promoting one raw record
type Outcome struct {
	Record  *models.CleanRecord `json:"record,omitempty"`
	Skipped bool                `json:"skipped"`
	Reason  string              `json:"reason,omitempty"`
}

// RecordError reports a raw record the batch could not promote
type RecordError struct {
	RecordID uint   `json:"record_id"`
	Error    string `json:"error"`
}

// BatchResult summarizes a dataset cleaning run
type BatchResult struct {
	DatasetID  uint          `json:"dataset_id"`
	Scope      Scope         `json:"scope"`
	Processed  int           `json:"processed"`
	Cleaned    int           `json:"cleaned"`
	Duplicates int           `json:"duplicates"`
	Empty      int           `json:"empty"`
	Failed     int           `json:"failed"`
	Errors     []RecordError `json:"errors,omitempty"`
}

// StatsRefresher keeps dataset counters and global statistics current
type StatsRefresher interface {
	RefreshCounters(ctx context.Context, datasetID uint) error
	RefreshStatistics(ctx context.Context) error
}

// Service promotes raw records to clean records
type Service struct {
	db           *gorm.DB
	stats        StatsRefresher
	defaultScope Scope
	log          logger.Logger
}

// NewService creates a cleaning service. stats may be nil.
func NewService(db *gorm.DB, stats StatsRefresher, defaultScope Scope, log logger.Logger) *Service {
	if defaultScope == "" {
		defaultScope = ScopeGlobal
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		db:           db,
		stats:        stats,
		defaultScope: defaultScope,
		log:          log.With(logger.String("service", "cleaning")),
	}
}

// DefaultScope returns the configured scope
func (s *Service) DefaultScope() Scope {
	return s.defaultScope
}

// PromoteToClean cleans one raw record. The raw record always leaves the raw status,
// even when its cleaned text duplicates an existing clean record; a record that has
// already been promoted is left untouched.
func (s *Service) PromoteToClean(ctx context.Context, rawID uint, scope Scope) (*Outcome, error) {
	if scope == "" {
		scope = s.defaultScope
	}

	var out *Outcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var raw models.RawRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&raw, rawID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("raw record", rawID)
			}
			return err
		}

		if raw.Status != models.StatusRaw {
			out = &Outcome{Skipped: true, Reason: ReasonAlreadyCleaned}
			var existing models.CleanRecord
			if err := tx.Where("raw_record_id = ?", raw.ID).First(&existing).Error; err == nil {
				out.Record = &existing
			}
			return nil
		}

		cleaned := Clean(raw.Content)
		switch {
		case cleaned == "":
			out = &Outcome{Skipped: true, Reason: ReasonEmpty}
		default:
			dup, err := isDuplicate(tx, cleaned, raw.DatasetID, scope)
			if err != nil {
				return err
			}
			if dup {
				out = &Outcome{Skipped: true, Reason: ReasonDuplicate}
				break
			}
			rec := &models.CleanRecord{
				RawRecordID:    raw.ID,
				DatasetID:      raw.DatasetID,
				Source:         raw.Source,
				Username:       raw.Username,
				Content:        raw.Content,
				CleanedContent: cleaned,
				URL:            raw.URL,
				Platform:       raw.Platform,
				Keyword:        raw.Keyword,
			}
			if err := tx.Create(rec).Error; err != nil {
				return fmt.Errorf("creating clean record: %w", err)
			}
			out = &Outcome{Record: rec}
		}

		if !raw.Status.CanAdvanceTo(models.StatusCleaned) {
			return nil
		}
		return tx.Model(&models.RawRecord{}).
			Where("id = ? AND status = ?", raw.ID, models.StatusRaw).
			Update("status", models.StatusCleaned).Error
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		metrics.RecordsCleaned.WithLabelValues("failed").Inc()
		return nil, apperrors.DatabaseError("promote raw record", err)
	}

	switch {
	case out.Reason == ReasonAlreadyCleaned:
	case out.Skipped:
		metrics.RecordsCleaned.WithLabelValues(out.Reason).Inc()
	default:
		metrics.RecordsCleaned.WithLabelValues("cleaned").Inc()
	}
	return out, nil
}

func isDuplicate(tx *gorm.DB, cleaned string, datasetID *uint, scope Scope) (bool, error) {
	q := tx.Model(&models.CleanRecord{}).
		Where("content_hash = ? AND cleaned_content = ?", models.HashText(cleaned), cleaned)
	if scope == ScopeDataset {
		if datasetID == nil {
			q = q.Where("dataset_id IS NULL")
		} else {
			q = q.Where("dataset_id = ?", *datasetID)
		}
	}
	var n int64
	if err := q.Limit(1).Count(&n).Error; err != nil {
		return false, fmt.Errorf("checking duplicate clean content: %w", err)
	}
	return n > 0, nil
}

// CleanDataset promotes every raw record in the dataset, continuing past failures
func (s *Service) CleanDataset(ctx context.Context, datasetID uint, scope Scope) (*BatchResult, error) {
	if scope == "" {
		scope = s.defaultScope
	}

	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.RawRecord{}).
		Where("dataset_id = ? AND status = ?", datasetID, models.StatusRaw).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.DatabaseError("list raw records", err)
	}

	res := &BatchResult{DatasetID: datasetID, Scope: scope}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Processed++
		out, err := s.PromoteToClean(ctx, id, scope)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RecordError{RecordID: id, Error: err.Error()})
			s.log.Warn("Failed to clean record", logger.Uint("record_id", id), logger.Error(err))
			continue
		}
		switch out.Reason {
		case "":
			res.Cleaned++
		case ReasonDuplicate:
			res.Duplicates++
		case ReasonEmpty:
			res.Empty++
		}
	}

	if s.stats != nil && res.Processed > 0 {
		if err := s.stats.RefreshCounters(ctx, datasetID); err != nil {
			s.log.Warn("Failed to refresh dataset counters", logger.Uint("dataset_id", datasetID), logger.Error(err))
		}
		if err := s.stats.RefreshStatistics(ctx); err != nil {
			s.log.Warn("Failed to refresh statistics", logger.Error(err))
		}
	}

	s.log.Info("Dataset cleaned",
		logger.Uint("dataset_id", datasetID),
		logger.String("scope", string(scope)),
		logger.Int("cleaned", res.Cleaned),
		logger.Int("duplicates", res.Duplicates),
		logger.Int("failed", res.Failed))
	return res, nil
}
