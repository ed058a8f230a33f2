package cleaning

import (
	"context"
	"testing"

	"github.com/killallgit/waskita-api/internal/database"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/datasets"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	datasets datasets.Service
	svc      *Service
}

func newFixture(t *testing.T, scope Scope) *fixture {
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	ds := datasets.NewService(db.DB, datasets.NewRepository(db.DB), nil)
	return &fixture{db: db.DB, datasets: ds, svc: NewService(db.DB, ds, scope, nil)}
}

func (f *fixture) dataset(t *testing.T, name string) uint {
	t.Helper()
	ds, _, err := f.datasets.FindOrCreate(context.Background(), name, 1, "")
	require.NoError(t, err)
	return ds.ID
}

func (f *fixture) raw(t *testing.T, datasetID uint, content string) *models.RawRecord {
	t.Helper()
	rec := &models.RawRecord{DatasetID: &datasetID, Source: models.SourceUpload, Content: content, Platform: models.PlatformManual}
	require.NoError(t, f.db.Create(rec).Error)
	return rec
}

func (f *fixture) status(t *testing.T, id uint) models.RecordStatus {
	t.Helper()
	var rec models.RawRecord
	require.NoError(t, f.db.First(&rec, id).Error)
	return rec.Status
}

func TestPromoteToClean(t *testing.T) {
	f := newFixture(t, ScopeGlobal)
	ctx := context.Background()
	ds := f.dataset(t, "a")
	rec := f.raw(t, ds, "Banjir di @kota #Jakarta!!")

	out, err := f.svc.PromoteToClean(ctx, rec.ID, "")
	require.NoError(t, err)
	assert.False(t, out.Skipped)
	require.NotNil(t, out.Record)
	assert.Equal(t, "banjir di", out.Record.CleanedContent)
	assert.Equal(t, rec.ID, out.Record.RawRecordID)
	assert.Equal(t, models.HashText("banjir di"), out.Record.ContentHash)
	assert.Equal(t, models.StatusCleaned, f.status(t, rec.ID))

	again, err := f.svc.PromoteToClean(ctx, rec.ID, "")
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Equal(t, ReasonAlreadyCleaned, again.Reason)
	require.NotNil(t, again.Record)
	assert.Equal(t, out.Record.ID, again.Record.ID)

	var n int64
	require.NoError(t, f.db.Model(&models.CleanRecord{}).Where("raw_record_id = ?", rec.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n, "at most one clean record per raw record")

	_, err = f.svc.PromoteToClean(ctx, 9999, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestPromoteToClean_DuplicateStillAdvances(t *testing.T) {
	f := newFixture(t, ScopeGlobal)
	ctx := context.Background()
	ds := f.dataset(t, "a")
	first := f.raw(t, ds, "Banjir Jakarta")
	second := f.raw(t, ds, "banjir jakarta!!!")

	_, err := f.svc.PromoteToClean(ctx, first.ID, "")
	require.NoError(t, err)

	out, err := f.svc.PromoteToClean(ctx, second.ID, "")
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, ReasonDuplicate, out.Reason)
	assert.Nil(t, out.Record)
	assert.Equal(t, models.StatusCleaned, f.status(t, second.ID))
}

func TestPromoteToClean_Scope(t *testing.T) {
	f := newFixture(t, ScopeGlobal)
	ctx := context.Background()
	a := f.dataset(t, "a")
	b := f.dataset(t, "b")

	_, err := f.svc.PromoteToClean(ctx, f.raw(t, a, "sama persis").ID, "")
	require.NoError(t, err)

	inB := f.raw(t, b, "Sama persis")
	out, err := f.svc.PromoteToClean(ctx, inB.ID, ScopeDataset)
	require.NoError(t, err)
	assert.False(t, out.Skipped, "another dataset is not a duplicate in dataset scope")

	inB2 := f.raw(t, b, "SAMA PERSIS")
	out, err = f.svc.PromoteToClean(ctx, inB2.ID, ScopeDataset)
	require.NoError(t, err)
	assert.Equal(t, ReasonDuplicate, out.Reason)

	other := f.dataset(t, "c")
	out, err = f.svc.PromoteToClean(ctx, f.raw(t, other, "sama persis.").ID, ScopeGlobal)
	require.NoError(t, err)
	assert.Equal(t, ReasonDuplicate, out.Reason, "global scope sees every dataset")
}

func TestPromoteToClean_EmptyAfterCleaning(t *testing.T) {
	f := newFixture(t, ScopeGlobal)
	rec := f.raw(t, f.dataset(t, "a"), "@budi #banjir https://t.co/x")

	out, err := f.svc.PromoteToClean(context.Background(), rec.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ReasonEmpty, out.Reason)
	assert.Equal(t, models.StatusCleaned, f.status(t, rec.ID))
}

func TestPromoteToClean_NeverRegresses(t *testing.T) {
	f := newFixture(t, ScopeGlobal)
	rec := f.raw(t, f.dataset(t, "a"), "sudah diklasifikasi")
	require.NoError(t, f.db.Model(rec).Update("status", models.StatusClassified).Error)

	out, err := f.svc.PromoteToClean(context.Background(), rec.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ReasonAlreadyCleaned, out.Reason)
	assert.Equal(t, models.StatusClassified, f.status(t, rec.ID))
}

func TestCleanDataset(t *testing.T) {
	f := newFixture(t, ScopeDataset)
	ctx := context.Background()
	ds := f.dataset(t, "batch")
	for _, c := range []string{"Satu", "satu!", "Dua", "😀😀", "Tiga"} {
		f.raw(t, ds, c)
	}
	f.raw(t, f.dataset(t, "lain"), "satu")

	res, err := f.svc.CleanDataset(ctx, ds, "")
	require.NoError(t, err)
	assert.Equal(t, ScopeDataset, res.Scope)
	assert.Equal(t, 5, res.Processed)
	assert.Equal(t, 3, res.Cleaned)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Empty)
	assert.Zero(t, res.Failed)

	got, err := f.datasets.GetDataset(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalRecords)
	assert.Equal(t, 5, got.CleanedRecords)

	again, err := f.svc.CleanDataset(ctx, ds, "")
	require.NoError(t, err)
	assert.Zero(t, again.Processed, "cleaned records are not reprocessed")
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("", ScopeDataset)
	require.NoError(t, err)
	assert.Equal(t, ScopeDataset, s)

	s, err = ParseScope(" GLOBAL ", ScopeDataset)
	require.NoError(t, err)
	assert.Equal(t, ScopeGlobal, s)

	_, err = ParseScope("world", ScopeGlobal)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}
