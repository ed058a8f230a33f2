package datasets

import (
	"context"
	"testing"
	"time"

	"github.com/killallgit/waskita-api/internal/database"
	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	db := setupTestDB(t)
	return NewService(db, NewRepository(db), nil), db
}

func uintPtr(v uint) *uint { return &v }

func seedRecords(t *testing.T, db *gorm.DB, datasetID uint) (raws []models.RawRecord, cleans []models.CleanRecord) {
	t.Helper()
	now := time.Now().UTC()
	raws = []models.RawRecord{
		{DatasetID: uintPtr(datasetID), Source: models.SourceUpload, Content: "satu", Platform: models.PlatformManual, Status: models.StatusClassified},
		{DatasetID: uintPtr(datasetID), Source: models.SourceScraper, Content: "dua", Platform: models.PlatformTwitter, Keyword: "banjir", Status: models.StatusCleaned, ScrapeDate: &now},
		{DatasetID: uintPtr(datasetID), Source: models.SourceScraper, Content: "tiga", Platform: models.PlatformTwitter, Keyword: "banjir"},
	}
	require.NoError(t, db.Create(&raws).Error)

	cleans = []models.CleanRecord{
		{RawRecordID: raws[0].ID, DatasetID: uintPtr(datasetID), Source: models.SourceUpload, Content: "satu", CleanedContent: "satu"},
		{RawRecordID: raws[1].ID, DatasetID: uintPtr(datasetID), Source: models.SourceScraper, Content: "dua", CleanedContent: "dua"},
	}
	require.NoError(t, db.Create(&cleans).Error)

	results := []models.ClassificationResult{
		{DataType: models.SourceUpload, DataID: cleans[0].ID, ModelName: "naive_bayes_1", Prediction: models.LabelRadical, ProbRadical: 0.8, ProbNonRadical: 0.2},
		{DataType: models.SourceUpload, DataID: cleans[0].ID, ModelName: "naive_bayes_2", Prediction: models.LabelNonRadical, ProbRadical: 0.3, ProbNonRadical: 0.7,
			IsCorrected: true, CorrectedPrediction: models.LabelRadical},
		{DataType: models.SourceUpload, DataID: cleans[0].ID, ModelName: "naive_bayes_3", Prediction: models.LabelNonRadical, ProbRadical: 0.1, ProbNonRadical: 0.9},
	}
	require.NoError(t, db.Create(&results).Error)
	return raws, cleans
}

func TestService_FindOrCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, created, err := svc.FindOrCreate(ctx, "  Banjir Jakarta ", 7, "scraped")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Banjir Jakarta", first.Name)

	again, created, err := svc.FindOrCreate(ctx, "Banjir Jakarta", 7, "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	other, created, err := svc.FindOrCreate(ctx, "Banjir Jakarta", 8, "")
	require.NoError(t, err)
	assert.True(t, created, "same name for another owner is a separate dataset")
	assert.NotEqual(t, first.ID, other.ID)

	_, _, err = svc.FindOrCreate(ctx, "   ", 7, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}

func TestService_GetAndList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetDataset(ctx, 999)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	for _, name := range []string{"alpha", "beta", "gamma"} {
		_, _, err := svc.FindOrCreate(ctx, name, 1, "")
		require.NoError(t, err)
	}
	_, _, err = svc.FindOrCreate(ctx, "delta", 2, "")
	require.NoError(t, err)

	all, total, err := svc.ListDatasets(ctx, ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)

	owned, total, err := svc.ListDatasets(ctx, ListFilters{OwnerID: uintPtr(1), Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, owned, 2)

	named, _, err := svc.ListDatasets(ctx, ListFilters{Name: "amm"})
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "gamma", named[0].Name)
}

func TestService_RefreshCounters(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	ds, _, err := svc.FindOrCreate(ctx, "counters", 1, "")
	require.NoError(t, err)
	seedRecords(t, db, ds.ID)

	require.NoError(t, svc.RefreshCounters(ctx, ds.ID))

	got, err := svc.GetDataset(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalRecords)
	assert.Equal(t, 2, got.CleanedRecords)
	assert.Equal(t, 1, got.ClassifiedRecords)
}

func TestService_Statistics(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	empty, err := svc.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalRawUpload)

	ds, _, err := svc.FindOrCreate(ctx, "stats", 1, "")
	require.NoError(t, err)
	seedRecords(t, db, ds.ID)

	require.NoError(t, svc.RefreshStatistics(ctx))
	stats, err := svc.GetStatistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalRawUpload)
	assert.Equal(t, int64(2), stats.TotalRawScraper)
	assert.Equal(t, int64(1), stats.TotalCleanUpload)
	assert.Equal(t, int64(1), stats.TotalCleanScrape)
	assert.Equal(t, int64(1), stats.TotalClassified)
	assert.Equal(t, int64(2), stats.TotalRadical, "corrected label counts as the final prediction")
	assert.Equal(t, int64(1), stats.TotalNonRadical)

	var rows int64
	require.NoError(t, db.Model(&models.DatasetStatistics{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestService_DeleteDataset(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	keep, _, err := svc.FindOrCreate(ctx, "keep", 1, "")
	require.NoError(t, err)
	drop, _, err := svc.FindOrCreate(ctx, "drop", 1, "")
	require.NoError(t, err)

	seedRecords(t, db, drop.ID)
	require.NoError(t, db.Create(&models.RawRecord{DatasetID: uintPtr(keep.ID), Source: models.SourceUpload, Content: "aman", Platform: models.PlatformManual}).Error)

	require.NoError(t, svc.DeleteDataset(ctx, drop.ID))

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, db.Unscoped().Model(model).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(1), count(&models.RawRecord{}))
	assert.Equal(t, int64(0), count(&models.CleanRecord{}))
	assert.Equal(t, int64(0), count(&models.ClassificationResult{}))
	assert.Equal(t, int64(1), count(&models.Dataset{}))

	stats, err := svc.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalRawUpload)
	assert.Zero(t, stats.TotalRadical)

	err = svc.DeleteDataset(ctx, drop.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}
