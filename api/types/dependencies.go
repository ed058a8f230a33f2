package types

import (
	"context"

	"github.com/killallgit/waskita-api/internal/database"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/classification"
	"github.com/killallgit/waskita-api/internal/services/cleaning"
	"github.com/killallgit/waskita-api/internal/services/datasets"
	"github.com/killallgit/waskita-api/internal/services/jobs"
	"github.com/killallgit/waskita-api/internal/services/mapping"
	"github.com/killallgit/waskita-api/internal/services/progress"
	"github.com/killallgit/waskita-api/internal/services/upload"
	"github.com/killallgit/waskita-api/pkg/config"
	"github.com/killallgit/waskita-api/pkg/logger"
)

// MappingNegotiator resolves staged scrape results into records
type MappingNegotiator interface {
	GetSchema(ctx context.Context, token string) (*mapping.Schema, error)
	Commit(ctx context.Context, token string, m mapping.Mapping) (*mapping.CommitResult, error)
	Abandon(ctx context.Context, token string) error
}

// UploadService ingests uploaded spreadsheet files
type UploadService interface {
	Ingest(ctx context.Context, req upload.Request) (*upload.Result, error)
	MaxSize() int64
}

// CleaningService promotes raw records to clean records
type CleaningService interface {
	CleanDataset(ctx context.Context, datasetID uint, scope cleaning.Scope) (*cleaning.BatchResult, error)
	DefaultScope() cleaning.Scope
}

// ClassificationService runs and corrects classifications
type ClassificationService interface {
	ClassifyDataset(ctx context.Context, datasetID uint) (*classification.BatchResult, error)
	CorrectResult(ctx context.Context, resultID uint, label string, correctedBy *uint) (*models.ClassificationResult, error)
	ListResults(ctx context.Context, f classification.ResultFilters) ([]models.ClassificationResult, int64, error)
	ExportResults(ctx context.Context, datasetID uint) (*classification.Export, error)
}

// ProgressTracker reports live progress of a remote run
type ProgressTracker interface {
	GetProgress(ctx context.Context, runID string) progress.Progress
}

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB             *database.DB
	Config         *config.Config
	Logger         logger.Logger
	Jobs           jobs.Service
	Datasets       datasets.Service
	Negotiator     MappingNegotiator
	Upload         UploadService
	Cleaning       CleaningService
	Classification ClassificationService
	Progress       ProgressTracker
}

// Log returns the configured logger or a no-op one
func (d *Dependencies) Log() logger.Logger {
	if d == nil || d.Logger == nil {
		return logger.NewNop()
	}
	return d.Logger
}
