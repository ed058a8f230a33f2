package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/killallgit/waskita-api/internal/database"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockPruner struct {
	mock.Mock
}

func (m *mockPruner) CleanupOld(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

type mockStats struct {
	mock.Mock
}

func (m *mockStats) RefreshStatistics(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

func uintPtr(v uint) *uint { return &v }

// seed creates one kept record and two orphans, one of which was cleaned and classified
func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	ds := &models.Dataset{Name: "tetap"}
	require.NoError(t, db.Create(ds).Error)

	kept := &models.RawRecord{DatasetID: &ds.ID, Source: models.SourceUpload, Content: "tetap ada", Platform: models.PlatformManual}
	noDataset := &models.RawRecord{Source: models.SourceScraper, Content: "tanpa dataset", Platform: models.PlatformTwitter}
	gone := &models.RawRecord{DatasetID: uintPtr(ds.ID + 100), Source: models.SourceScraper, Content: "dataset hilang", Platform: models.PlatformTwitter}
	for _, r := range []*models.RawRecord{kept, noDataset, gone} {
		require.NoError(t, db.Create(r).Error)
	}

	clean := &models.CleanRecord{RawRecordID: noDataset.ID, Source: models.SourceScraper, CleanedContent: "tanpa dataset"}
	require.NoError(t, db.Create(clean).Error)
	require.NoError(t, db.Create(&models.ClassificationResult{
		DataType: models.SourceScraper, DataID: clean.ID, ModelName: "model1", Prediction: models.LabelNonRadical,
	}).Error)
}

func TestService_DeleteOrphanedRecords(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	svc := NewService(db, nil, nil, nil, 0, nil)

	n, err := svc.DeleteOrphanedRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var raws []models.RawRecord
	require.NoError(t, db.Find(&raws).Error)
	require.Len(t, raws, 1)
	assert.Equal(t, "tetap ada", raws[0].Content)

	var cleans, results int64
	require.NoError(t, db.Model(&models.CleanRecord{}).Count(&cleans).Error)
	require.NoError(t, db.Unscoped().Model(&models.ClassificationResult{}).Count(&results).Error)
	assert.Zero(t, cleans)
	assert.Zero(t, results)

	n, err = svc.DeleteOrphanedRecords(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_RunOnce(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	pruner := &mockPruner{}
	pruner.On("CleanupOld", mock.Anything, 48*time.Hour).Return(int64(3), nil)
	stats := &mockStats{}
	stats.On("RefreshStatistics", mock.Anything).Return(nil).Once()

	svc := NewService(db, pruner, stats, nil, 48*time.Hour, nil)
	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.OrphanedRecords)
	assert.Equal(t, int64(3), report.DeletedJobs)

	// nothing orphaned the second time, so statistics are left alone
	_, err = svc.RunOnce(context.Background())
	require.NoError(t, err)

	pruner.AssertNumberOfCalls(t, "CleanupOld", 2)
	stats.AssertExpectations(t)
}

func TestService_StartStop(t *testing.T) {
	db := setupTestDB(t)

	bad := NewService(db, nil, nil, []string{"not a schedule"}, 0, nil)
	assert.Error(t, bad.Start(context.Background()))

	svc := NewService(db, nil, nil, nil, 0, nil)
	require.NoError(t, svc.Start(context.Background()))
	assert.Error(t, svc.Start(context.Background()), "already started")
	svc.Stop()
	svc.Stop()
}
