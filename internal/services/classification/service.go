package classification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/killallgit/waskita-api/internal/metrics"
	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsRefresher keeps dataset counters and global statistics current
type StatsRefresher interface {
	RefreshCounters(ctx context.Context, datasetID uint) error
	RefreshStatistics(ctx context.Context) error
}

// RecordResult is the outcome of classifying one clean record
type RecordResult struct {
	CleanRecordID  uint              `json:"clean_record_id"`
	Skipped        bool              `json:"skipped"`
	Results        []Prediction      `json:"results,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
	Unclassifiable bool              `json:"unclassifiable,omitempty"`
	Complete       bool              `json:"complete"`
}

// RecordError reports a clean record the batch could not classify
type RecordError struct {
	CleanRecordID uint   `json:"clean_record_id"`
	Error         string `json:"error"`
}

// BatchResult summarizes a dataset classification run
type BatchResult struct {
	DatasetID      uint          `json:"dataset_id"`
	Processed      int           `json:"processed"`
	Classified     int           `json:"classified"`
	Partial        int           `json:"partial"`
	Skipped        int           `json:"skipped"`
	Unclassifiable int           `json:"unclassifiable"`
	Failed         int           `json:"failed"`
	Errors         []RecordError `json:"errors,omitempty"`
}

// ResultFilters selects stored results
type ResultFilters struct {
	DatasetID uint
	Label     string
	Limit     int
	Offset    int
}

// Service persists classification results for clean records
type Service struct {
	db          *gorm.DB
	vectorizer  Vectorizer
	classifiers map[string]Classifier
	stats       StatsRefresher
	log         logger.Logger
}

// NewService creates a classification service. stats may be nil.
func NewService(db *gorm.DB, vectorizer Vectorizer, classifiers map[string]Classifier, stats StatsRefresher, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		db:          db,
		vectorizer:  vectorizer,
		classifiers: classifiers,
		stats:       stats,
		log:         log.With(logger.String("service", "classification")),
	}
}

// ModelNames returns the configured model names in order
func (s *Service) ModelNames() []string {
	return sortedNames(s.classifiers)
}

// ClassifyRecord runs every model that has no stored result for the clean record yet.
// The raw record becomes classified once all configured models have a result.
func (s *Service) ClassifyRecord(ctx context.Context, cleanID uint) (*RecordResult, error) {
	if len(s.classifiers) == 0 || s.vectorizer == nil {
		return nil, apperrors.ConfigurationError("classifier.models", "no classification models are loaded")
	}

	var clean models.CleanRecord
	if err := s.db.WithContext(ctx).First(&clean, cleanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("clean record", cleanID)
		}
		return nil, apperrors.DatabaseError("get clean record", err)
	}

	done, err := s.existingModels(ctx, clean)
	if err != nil {
		return nil, apperrors.DatabaseError("list classification results", err)
	}
	missing := make(map[string]Classifier)
	for name, clf := range s.classifiers {
		if !done[name] {
			missing[name] = clf
		}
	}

	res := &RecordResult{CleanRecordID: clean.ID}
	if len(missing) == 0 {
		res.Skipped = true
		res.Complete = true
		if err := s.markClassified(ctx, clean.RawRecordID); err != nil {
			return nil, apperrors.DatabaseError("update raw record status", err)
		}
		return res, nil
	}

	outcome := Classify(ctx, s.vectorizer, clean.CleanedContent, missing)
	res.Results = outcome.Results
	res.Unclassifiable = outcome.Unclassifiable
	if len(outcome.Errors) > 0 {
		res.Errors = make(map[string]string, len(outcome.Errors))
		for name, err := range outcome.Errors {
			res.Errors[name] = err.Error()
			s.log.Warn("Model failed",
				logger.String("model", name),
				logger.Uint("clean_record_id", clean.ID),
				logger.Error(err))
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range outcome.Results {
			row := &models.ClassificationResult{
				DataType:       clean.Source,
				DataID:         clean.ID,
				ModelName:      p.Model,
				Prediction:     p.Label,
				ProbRadical:    p.ProbRadical,
				ProbNonRadical: p.ProbNonRadical,
				Unclassifiable: p.Unclassifiable,
			}
			// a concurrent run may have stored this model's row already
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
				return fmt.Errorf("storing %s result: %w", p.Model, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.DatabaseError("store classification results", err)
	}
	for _, p := range outcome.Results {
		metrics.Classifications.WithLabelValues(p.Model, p.Label).Inc()
	}

	res.Complete = len(outcome.Errors) == 0
	if res.Complete {
		if err := s.markClassified(ctx, clean.RawRecordID); err != nil {
			return nil, apperrors.DatabaseError("update raw record status", err)
		}
	}
	return res, nil
}

func (s *Service) existingModels(ctx context.Context, clean models.CleanRecord) (map[string]bool, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&models.ClassificationResult{}).
		Where("data_type = ? AND data_id = ?", clean.Source, clean.ID).
		Pluck("model_name", &names).Error; err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(names))
	for _, n := range names {
		done[n] = true
	}
	return done, nil
}

// markClassified advances the raw record; the status filter keeps it monotonic
func (s *Service) markClassified(ctx context.Context, rawID uint) error {
	return s.db.WithContext(ctx).Model(&models.RawRecord{}).
		Where("id = ? AND status IN ?", rawID, []models.RecordStatus{models.StatusRaw, models.StatusCleaned}).
		Update("status", models.StatusClassified).Error
}

// ClassifyDataset classifies every clean record in the dataset whose raw record is
// not classified yet, continuing past failures
func (s *Service) ClassifyDataset(ctx context.Context, datasetID uint) (*BatchResult, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.CleanRecord{}).
		Joins("JOIN raw_records ON raw_records.id = clean_records.raw_record_id").
		Where("clean_records.dataset_id = ? AND raw_records.status = ?", datasetID, models.StatusCleaned).
		Order("clean_records.id").
		Pluck("clean_records.id", &ids).Error
	if err != nil {
		return nil, apperrors.DatabaseError("list clean records", err)
	}

	batch := &BatchResult{DatasetID: datasetID}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch.Processed++
		res, err := s.ClassifyRecord(ctx, id)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrCodeConfiguration) {
				return nil, err
			}
			batch.Failed++
			batch.Errors = append(batch.Errors, RecordError{CleanRecordID: id, Error: err.Error()})
			continue
		}
		switch {
		case res.Skipped:
			batch.Skipped++
		case res.Complete:
			batch.Classified++
		default:
			batch.Partial++
			batch.Errors = append(batch.Errors, RecordError{CleanRecordID: id, Error: joinErrors(res.Errors)})
		}
		if res.Unclassifiable {
			batch.Unclassifiable++
		}
	}

	if s.stats != nil && batch.Processed > 0 {
		if err := s.stats.RefreshCounters(ctx, datasetID); err != nil {
			s.log.Warn("Failed to refresh dataset counters", logger.Uint("dataset_id", datasetID), logger.Error(err))
		}
		if err := s.stats.RefreshStatistics(ctx); err != nil {
			s.log.Warn("Failed to refresh statistics", logger.Error(err))
		}
	}

	s.log.Info("Dataset classified",
		logger.Uint("dataset_id", datasetID),
		logger.Int("classified", batch.Classified),
		logger.Int("partial", batch.Partial),
		logger.Int("unclassifiable", batch.Unclassifiable),
		logger.Int("failed", batch.Failed))
	return batch, nil
}

func joinErrors(errs map[string]string) string {
	names := make([]string, 0, len(errs))
	for n := range errs {
		names = append(names, n)
	}
	sort.Strings(names)
	var out string
	for i, n := range names {
		if i > 0 {
			out += "; "
		}
		out += errs[n]
	}
	return out
}

// CorrectResult records a manual label that overrides the model prediction
func (s *Service) CorrectResult(ctx context.Context, resultID uint, label string, correctedBy *uint) (*models.ClassificationResult, error) {
	if !models.IsValidLabel(label) {
		return nil, apperrors.ValidationError("label", fmt.Sprintf("must be %q or %q", models.LabelRadical, models.LabelNonRadical))
	}

	var result models.ClassificationResult
	if err := s.db.WithContext(ctx).First(&result, resultID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("classification result", resultID)
		}
		return nil, apperrors.DatabaseError("get classification result", err)
	}

	now := time.Now().UTC()
	result.IsCorrected = true
	result.CorrectedPrediction = label
	result.CorrectedBy = correctedBy
	result.CorrectedAt = &now
	if err := s.db.WithContext(ctx).Model(&result).Select("IsCorrected", "CorrectedPrediction", "CorrectedBy", "CorrectedAt").
		Updates(&result).Error; err != nil {
		return nil, apperrors.DatabaseError("correct classification result", err)
	}

	if s.stats != nil {
		if err := s.stats.RefreshStatistics(ctx); err != nil {
			s.log.Warn("Failed to refresh statistics", logger.Error(err))
		}
	}
	s.log.Info("Classification corrected",
		logger.Uint("result_id", resultID),
		logger.String("label", label))
	return &result, nil
}

// ListResults returns stored results for a dataset, newest first
func (s *Service) ListResults(ctx context.Context, f ResultFilters) ([]models.ClassificationResult, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.ClassificationResult{}).
		Joins("JOIN clean_records ON clean_records.id = classification_results.data_id")
	if f.DatasetID != 0 {
		q = q.Where("clean_records.dataset_id = ?", f.DatasetID)
	}
	if f.Label != "" {
		q = q.Where("(classification_results.is_corrected = ? AND classification_results.corrected_prediction = ?) OR "+
			"(classification_results.is_corrected = ? AND classification_results.prediction = ?)", true, f.Label, false, f.Label)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.DatabaseError("count classification results", err)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var results []models.ClassificationResult
	if err := q.Select("classification_results.*").Order("classification_results.id DESC").Find(&results).Error; err != nil {
		return nil, 0, apperrors.DatabaseError("list classification results", err)
	}
	return results, total, nil
}
