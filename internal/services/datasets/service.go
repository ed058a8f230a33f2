package datasets

import (
	"context"
	"errors"
	"strings"

	"github.com/killallgit/waskita-api/internal/database"
	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
	"gorm.io/gorm"
)

// ServiceImpl implements the Service interface
type ServiceImpl struct {
	repository Repository
	db         *gorm.DB
	log        logger.Logger
}

// NewService creates a new dataset service
func NewService(db *gorm.DB, repository Repository, log logger.Logger) Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &ServiceImpl{
		repository: repository,
		db:         db,
		log:        log.With(logger.String("service", "datasets")),
	}
}

// FindOrCreate returns the existing dataset or creates it. A concurrent creator
// losing the unique index race re-reads the winner's row.
func (s *ServiceImpl) FindOrCreate(ctx context.Context, name string, ownerID uint, description string) (*models.Dataset, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, apperrors.ValidationError("dataset_name", "must not be empty")
	}

	existing, err := s.repository.GetByNameAndOwner(ctx, name, ownerID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrDatasetNotFound) {
		return nil, false, apperrors.DatabaseError("find dataset", err)
	}

	dataset := &models.Dataset{Name: name, OwnerID: ownerID, Description: description}
	if err := s.repository.Create(ctx, dataset); err != nil {
		if database.IsUniqueViolation(err) {
			existing, getErr := s.repository.GetByNameAndOwner(ctx, name, ownerID)
			if getErr != nil {
				return nil, false, apperrors.DatabaseError("find dataset", getErr)
			}
			return existing, false, nil
		}
		return nil, false, apperrors.DatabaseError("create dataset", err)
	}

	s.log.Info("Created dataset",
		logger.Uint("dataset_id", dataset.ID),
		logger.String("name", dataset.Name),
		logger.Uint("owner_id", ownerID))
	return dataset, true, nil
}

// GetDataset retrieves a dataset by ID
func (s *ServiceImpl) GetDataset(ctx context.Context, id uint) (*models.Dataset, error) {
	dataset, err := s.repository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDatasetNotFound) {
			return nil, apperrors.NotFound("dataset", id)
		}
		return nil, apperrors.DatabaseError("get dataset", err)
	}
	return dataset, nil
}

// ListDatasets lists datasets matching filters
func (s *ServiceImpl) ListDatasets(ctx context.Context, filters ListFilters) ([]models.Dataset, int64, error) {
	datasets, total, err := s.repository.List(ctx, filters)
	if err != nil {
		return nil, 0, apperrors.DatabaseError("list datasets", err)
	}
	return datasets, total, nil
}

// DeleteDataset removes a dataset with all derived rows, then refreshes statistics
func (s *ServiceImpl) DeleteDataset(ctx context.Context, id uint) error {
	if err := s.repository.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, ErrDatasetNotFound) {
			return apperrors.NotFound("dataset", id)
		}
		return apperrors.DatabaseError("delete dataset", err)
	}
	s.log.Info("Deleted dataset", logger.Uint("dataset_id", id))

	if err := s.RefreshStatistics(ctx); err != nil {
		s.log.Warn("Failed to refresh statistics after delete", logger.Error(err))
	}
	return nil
}

// RefreshCountersTx recomputes counters inside the caller's transaction
func (s *ServiceImpl) RefreshCountersTx(tx *gorm.DB, datasetID uint) error {
	return s.repository.UpdateCounters(tx, datasetID)
}

// RefreshCounters recomputes counters in a new transaction
func (s *ServiceImpl) RefreshCounters(ctx context.Context, datasetID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repository.UpdateCounters(tx, datasetID)
	})
}

// RefreshStatistics recomputes and persists the global statistics row
func (s *ServiceImpl) RefreshStatistics(ctx context.Context) error {
	stats, err := s.repository.ComputeStatistics(ctx)
	if err != nil {
		return apperrors.DatabaseError("compute statistics", err)
	}
	if err := s.repository.SaveStatistics(ctx, stats); err != nil {
		return apperrors.DatabaseError("save statistics", err)
	}
	return nil
}

// GetStatistics returns the statistics row, computing it on first use
func (s *ServiceImpl) GetStatistics(ctx context.Context) (*models.DatasetStatistics, error) {
	stats, err := s.repository.GetStatistics(ctx)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, ErrDatasetNotFound) {
		return nil, apperrors.DatabaseError("get statistics", err)
	}
	if err := s.RefreshStatistics(ctx); err != nil {
		return nil, err
	}
	stats, err = s.repository.GetStatistics(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("get statistics", err)
	}
	return stats, nil
}
