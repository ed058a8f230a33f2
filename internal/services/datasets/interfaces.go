package datasets

import (
	"context"

	"github.com/killallgit/waskita-api/internal/models"
	"gorm.io/gorm"
)

// Service defines the interface for dataset and statistics operations
type Service interface {
	// FindOrCreate returns the dataset named name for owner, creating it on first use
	FindOrCreate(ctx context.Context, name string, ownerID uint, description string) (*models.Dataset, bool, error)

	GetDataset(ctx context.Context, id uint) (*models.Dataset, error)
	ListDatasets(ctx context.Context, filters ListFilters) ([]models.Dataset, int64, error)

	// DeleteDataset removes the dataset and every row derived from it
	DeleteDataset(ctx context.Context, id uint) error

	// RefreshCountersTx recomputes dataset counters inside an open transaction
	RefreshCountersTx(tx *gorm.DB, datasetID uint) error
	RefreshCounters(ctx context.Context, datasetID uint) error

	// RefreshStatistics recomputes the global statistics row
	RefreshStatistics(ctx context.Context) error
	GetStatistics(ctx context.Context) (*models.DatasetStatistics, error)
}

// ListFilters defines filters for listing datasets
type ListFilters struct {
	OwnerID *uint  `json:"owner_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// Repository defines the interface for dataset persistence
type Repository interface {
	Create(ctx context.Context, dataset *models.Dataset) error
	GetByID(ctx context.Context, id uint) (*models.Dataset, error)
	GetByNameAndOwner(ctx context.Context, name string, ownerID uint) (*models.Dataset, error)
	List(ctx context.Context, filters ListFilters) ([]models.Dataset, int64, error)

	// DeleteCascade removes classification results, clean records, raw records and the dataset in one transaction
	DeleteCascade(ctx context.Context, id uint) error

	UpdateCounters(tx *gorm.DB, datasetID uint) error
	ComputeStatistics(ctx context.Context) (*models.DatasetStatistics, error)
	SaveStatistics(ctx context.Context, stats *models.DatasetStatistics) error
	GetStatistics(ctx context.Context) (*models.DatasetStatistics, error)
}
