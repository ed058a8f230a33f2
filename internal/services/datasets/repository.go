package datasets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/waskita-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository errors
var (
	ErrDatasetNotFound = errors.New("dataset not found")
)

// RepositoryImpl implements the Repository interface using GORM
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new dataset repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// Create creates a new dataset record
func (r *RepositoryImpl) Create(ctx context.Context, dataset *models.Dataset) error {
	return r.db.WithContext(ctx).Create(dataset).Error
}

// GetByID retrieves a dataset by ID
func (r *RepositoryImpl) GetByID(ctx context.Context, id uint) (*models.Dataset, error) {
	var dataset models.Dataset
	if err := r.db.WithContext(ctx).First(&dataset, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("getting dataset: %w", err)
	}
	return &dataset, nil
}

// GetByNameAndOwner retrieves a dataset by its unique (name, owner) pair
func (r *RepositoryImpl) GetByNameAndOwner(ctx context.Context, name string, ownerID uint) (*models.Dataset, error) {
	var dataset models.Dataset
	err := r.db.WithContext(ctx).
		Where("name = ? AND owner_id = ?", name, ownerID).
		First(&dataset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("getting dataset by name: %w", err)
	}
	return &dataset, nil
}

// List retrieves datasets with optional filters, newest first
func (r *RepositoryImpl) List(ctx context.Context, filters ListFilters) ([]models.Dataset, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Dataset{})
	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}
	if filters.Name != "" {
		query = query.Where("name LIKE ?", "%"+filters.Name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting datasets: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var datasets []models.Dataset
	if err := query.Order("created_at DESC, id DESC").Find(&datasets).Error; err != nil {
		return nil, 0, fmt.Errorf("listing datasets: %w", err)
	}
	return datasets, total, nil
}

// DeleteCascade removes the dataset bottom-up so no derived row is orphaned
func (r *RepositoryImpl) DeleteCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dataset models.Dataset
		if err := tx.First(&dataset, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDatasetNotFound
			}
			return fmt.Errorf("loading dataset: %w", err)
		}

		rawIDs := tx.Model(&models.RawRecord{}).Select("id").Where("dataset_id = ?", id)
		cleanIDs := tx.Model(&models.CleanRecord{}).Select("id").Where("raw_record_id IN (?)", rawIDs)

		if err := tx.Unscoped().Where("data_id IN (?)", cleanIDs).Delete(&models.ClassificationResult{}).Error; err != nil {
			return fmt.Errorf("deleting classification results: %w", err)
		}
		if err := tx.Where("raw_record_id IN (?)", rawIDs).Delete(&models.CleanRecord{}).Error; err != nil {
			return fmt.Errorf("deleting clean records: %w", err)
		}
		if err := tx.Where("dataset_id = ?", id).Delete(&models.RawRecord{}).Error; err != nil {
			return fmt.Errorf("deleting raw records: %w", err)
		}
		if err := tx.Unscoped().Delete(&dataset).Error; err != nil {
			return fmt.Errorf("deleting dataset: %w", err)
		}
		return nil
	})
}

// UpdateCounters recomputes the dataset's record counters using tx
func (r *RepositoryImpl) UpdateCounters(tx *gorm.DB, datasetID uint) error {
	var total, cleaned, classified int64
	if err := tx.Model(&models.RawRecord{}).Where("dataset_id = ?", datasetID).Count(&total).Error; err != nil {
		return fmt.Errorf("counting raw records: %w", err)
	}
	if err := tx.Model(&models.RawRecord{}).
		Where("dataset_id = ? AND status IN ?", datasetID, []models.RecordStatus{models.StatusCleaned, models.StatusClassified}).
		Count(&cleaned).Error; err != nil {
		return fmt.Errorf("counting cleaned records: %w", err)
	}
	if err := tx.Model(&models.RawRecord{}).
		Where("dataset_id = ? AND status = ?", datasetID, models.StatusClassified).
		Count(&classified).Error; err != nil {
		return fmt.Errorf("counting classified records: %w", err)
	}

	return tx.Model(&models.Dataset{}).Where("id = ?", datasetID).Updates(map[string]interface{}{
		"total_records":      total,
		"cleaned_records":    cleaned,
		"classified_records": classified,
	}).Error
}

// ComputeStatistics aggregates the dashboard totals from the record tables
func (r *RepositoryImpl) ComputeStatistics(ctx context.Context) (*models.DatasetStatistics, error) {
	db := r.db.WithContext(ctx)
	stats := &models.DatasetStatistics{ID: models.StatisticsRowID}

	counts := []struct {
		dest  *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&stats.TotalRawUpload, &models.RawRecord{}, "source = ?", []interface{}{models.SourceUpload}},
		{&stats.TotalRawScraper, &models.RawRecord{}, "source = ?", []interface{}{models.SourceScraper}},
		{&stats.TotalCleanUpload, &models.CleanRecord{}, "source = ?", []interface{}{models.SourceUpload}},
		{&stats.TotalCleanScrape, &models.CleanRecord{}, "source = ?", []interface{}{models.SourceScraper}},
		{&stats.TotalClassified, &models.RawRecord{}, "status = ?", []interface{}{models.StatusClassified}},
		{&stats.TotalRadical, &models.ClassificationResult{}, finalLabelClause, []interface{}{true, models.LabelRadical, false, models.LabelRadical}},
		{&stats.TotalNonRadical, &models.ClassificationResult{}, finalLabelClause, []interface{}{true, models.LabelNonRadical, false, models.LabelNonRadical}},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.where, c.args...).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("computing statistics: %w", err)
		}
	}
	stats.UpdatedAt = time.Now().UTC()
	return stats, nil
}

// finalLabelClause matches results whose corrected or predicted label equals the argument
const finalLabelClause = "(is_corrected = ? AND corrected_prediction = ?) OR (is_corrected = ? AND prediction = ?)"

// SaveStatistics upserts the single statistics row
func (r *RepositoryImpl) SaveStatistics(ctx context.Context, stats *models.DatasetStatistics) error {
	stats.ID = models.StatisticsRowID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(stats).Error
}

// GetStatistics reads the statistics row
func (r *RepositoryImpl) GetStatistics(ctx context.Context) (*models.DatasetStatistics, error) {
	var stats models.DatasetStatistics
	if err := r.db.WithContext(ctx).First(&stats, models.StatisticsRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("getting statistics: %w", err)
	}
	return &stats, nil
}
