package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/killallgit/waskita-api/internal/database"
	"github.com/killallgit/waskita-api/internal/metrics"
	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Skip reasons reported in metrics
const (
	reasonDuplicate = "duplicate"
	reasonInvalid   = "invalid"
)

// RecordInput is one row to persist
type RecordInput struct {
	// Row is the 1-based position in the caller's input, used in error reports
	Row       int
	Username  string
	Content   string
	URL       string
	Platform  string
	Keyword   string
	CreatedAt string
	Engagement
	Metadata map[string]any
}

// WriteTarget describes where a batch goes
type WriteTarget struct {
	DatasetID        uint
	OwnerID          uint
	Source           models.DataSource
	OriginalFilename string
	FileSize         int64
	// ScrapeDate defaults to the write time for scraped batches
	ScrapeDate *time.Time
}

// RowError reports a row that could not be written
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// WriteResult summarizes a batch
type WriteResult struct {
	Written   int        `json:"written"`
	Skipped   int        `json:"skipped"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors,omitempty"`
	RecordIDs []uint     `json:"-"`
}

// StatsRefresher keeps dataset counters and global statistics current
type StatsRefresher interface {
	RefreshCountersTx(tx *gorm.DB, datasetID uint) error
	RefreshStatistics(ctx context.Context) error
}

// Writer persists record batches with duplicate suppression
type Writer struct {
	db    *gorm.DB
	stats StatsRefresher
	log   logger.Logger
}

// NewWriter creates a writer. stats may be nil.
func NewWriter(db *gorm.DB, stats StatsRefresher, log logger.Logger) *Writer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Writer{db: db, stats: stats, log: log.With(logger.String("service", "ingest"))}
}

// Write stores inputs in one transaction. Each row is inserted under a savepoint so a
// unique violation on the dedup key skips only that row. Dataset counters are refreshed
// inside the transaction; global statistics only after it commits.
func (w *Writer) Write(ctx context.Context, inputs []RecordInput, target WriteTarget) (*WriteResult, error) {
	if target.Source != models.SourceUpload && target.Source != models.SourceScraper {
		return nil, apperrors.ValidationError("source", fmt.Sprintf("unknown source %q", target.Source))
	}
	if target.Source == models.SourceScraper && target.ScrapeDate == nil {
		now := time.Now().UTC()
		target.ScrapeDate = &now
	}

	var result *WriteResult
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// reset on every attempt so a rolled-back batch reports nothing
		result = &WriteResult{}
		seen := make(map[string]struct{}, len(inputs))

		for i, in := range inputs {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := in.Row
			if row <= 0 {
				row = i + 1
			}

			rec, reason := buildRecord(in, target)
			if reason != "" {
				result.Failed++
				result.Errors = append(result.Errors, RowError{Row: row, Error: reason})
				continue
			}

			rec.DedupKey = rec.ComputeDedupKey()
			if _, dup := seen[rec.DedupKey]; dup {
				result.Skipped++
				continue
			}
			seen[rec.DedupKey] = struct{}{}

			err := tx.Transaction(func(sp *gorm.DB) error {
				return sp.Create(rec).Error
			})
			if err != nil {
				if database.IsUniqueViolation(err) {
					result.Skipped++
					continue
				}
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			result.Written++
			result.RecordIDs = append(result.RecordIDs, rec.ID)
		}

		if result.Written > 0 && target.DatasetID != 0 && w.stats != nil {
			if err := w.stats.RefreshCountersTx(tx, target.DatasetID); err != nil {
				return fmt.Errorf("refreshing dataset counters: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		w.log.Error("Batch write rolled back",
			logger.Uint("dataset_id", target.DatasetID),
			logger.Int("rows", len(inputs)),
			logger.Error(err))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.DatabaseError("write records", err)
	}

	source := string(target.Source)
	metrics.RecordsWritten.WithLabelValues(source).Add(float64(result.Written))
	metrics.RecordsSkipped.WithLabelValues(source, reasonDuplicate).Add(float64(result.Skipped))
	metrics.RecordsSkipped.WithLabelValues(source, reasonInvalid).Add(float64(result.Failed))

	if result.Written > 0 && w.stats != nil {
		if err := w.stats.RefreshStatistics(ctx); err != nil {
			w.log.Warn("Failed to refresh statistics", logger.Error(err))
		}
	}

	w.log.Info("Batch written",
		logger.Uint("dataset_id", target.DatasetID),
		logger.String("source", source),
		logger.Int("written", result.Written),
		logger.Int("skipped", result.Skipped),
		logger.Int("failed", result.Failed))
	return result, nil
}

// buildRecord validates one input; a non-empty reason means the row is rejected
func buildRecord(in RecordInput, target WriteTarget) (*models.RawRecord, string) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, "content is empty"
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = models.DefaultUsername
	}

	platform := strings.ToLower(strings.TrimSpace(in.Platform))
	if platform == "" {
		platform = DetectPlatform(in.URL)
	}

	rec := &models.RawRecord{
		OwnerID:  target.OwnerID,
		Source:   target.Source,
		Username: truncate(username, 255),
		Content:  content,
		URL:      truncate(strings.TrimSpace(in.URL), 2048),
		Platform: truncate(platform, 32),
		Keyword:  truncate(strings.TrimSpace(in.Keyword), 255),
		Status:   models.StatusRaw,
	}
	if target.DatasetID != 0 {
		id := target.DatasetID
		rec.DatasetID = &id
	}

	switch target.Source {
	case models.SourceScraper:
		rec.ScrapeDate = target.ScrapeDate
		rec.Likes = in.Likes
		rec.Retweets = in.Retweets
		rec.Replies = in.Replies
		rec.Comments = in.Comments
		rec.Shares = in.Shares
		rec.Views = in.Views
	case models.SourceUpload:
		rec.OriginalFilename = truncate(target.OriginalFilename, 255)
		rec.FileSize = target.FileSize
	}

	meta := in.Metadata
	if in.CreatedAt != "" {
		if meta == nil {
			meta = make(map[string]any, 1)
		}
		if _, ok := meta["created_at"]; !ok {
			meta["created_at"] = in.CreatedAt
		}
	}
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			rec.Metadata = datatypes.JSON(b)
		}
	}
	return rec, ""
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
