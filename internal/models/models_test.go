package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func uintPtr(v uint) *uint { return &v }

func TestRecordStatus_CanAdvanceTo(t *testing.T) {
	tests := []struct {
		from, to RecordStatus
		want     bool
	}{
		{StatusRaw, StatusCleaned, true},
		{StatusRaw, StatusClassified, true},
		{StatusCleaned, StatusClassified, true},
		{StatusCleaned, StatusRaw, false},
		{StatusClassified, StatusCleaned, false},
		{StatusClassified, StatusClassified, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanAdvanceTo(tt.to))
		})
	}
}

func TestRawRecord_DedupKey(t *testing.T) {
	scraped := func(platform, keyword string) *RawRecord {
		return &RawRecord{Source: SourceScraper, DatasetID: uintPtr(1), Platform: platform, Keyword: keyword, Content: "sama"}
	}

	assert.Equal(t, scraped("twitter", "banjir").ComputeDedupKey(), scraped("twitter", "banjir").ComputeDedupKey())
	assert.NotEqual(t, scraped("twitter", "banjir").ComputeDedupKey(), scraped("tiktok", "banjir").ComputeDedupKey())
	assert.NotEqual(t, scraped("twitter", "banjir").ComputeDedupKey(), scraped("twitter", "gempa").ComputeDedupKey())

	// uploads ignore platform
	u1 := &RawRecord{Source: SourceUpload, DatasetID: uintPtr(1), Platform: "twitter", Content: "sama"}
	u2 := &RawRecord{Source: SourceUpload, DatasetID: uintPtr(1), Platform: "manual", Content: "sama"}
	assert.Equal(t, u1.ComputeDedupKey(), u2.ComputeDedupKey())

	u3 := &RawRecord{Source: SourceUpload, DatasetID: uintPtr(2), Content: "sama"}
	assert.NotEqual(t, u1.ComputeDedupKey(), u3.ComputeDedupKey())
}

func TestRawRecord_BeforeCreateDefaults(t *testing.T) {
	db := setupTestDB(t)

	rec := &RawRecord{Source: SourceUpload, DatasetID: uintPtr(1), Username: "   ", Content: "halo", Platform: "manual"}
	require.NoError(t, db.Create(rec).Error)

	assert.Equal(t, DefaultUsername, rec.Username)
	assert.Equal(t, StatusRaw, rec.Status)
	assert.Len(t, rec.DedupKey, 64)

	dup := &RawRecord{Source: SourceUpload, DatasetID: uintPtr(1), Content: "halo", Platform: "manual"}
	assert.Error(t, db.Create(dup).Error, "unique dedup key should reject duplicate content")
}

func TestClassificationResult_UniqueTriple(t *testing.T) {
	db := setupTestDB(t)

	first := &ClassificationResult{DataType: SourceScraper, DataID: 7, ModelName: "model1", Prediction: LabelRadical}
	require.NoError(t, db.Create(first).Error)

	again := &ClassificationResult{DataType: SourceScraper, DataID: 7, ModelName: "model1", Prediction: LabelNonRadical}
	assert.Error(t, db.Create(again).Error)

	other := &ClassificationResult{DataType: SourceScraper, DataID: 7, ModelName: "model2", Prediction: LabelNonRadical}
	assert.NoError(t, db.Create(other).Error)
}

func TestClassificationResult_FinalPrediction(t *testing.T) {
	r := ClassificationResult{Prediction: LabelRadical}
	assert.Equal(t, LabelRadical, r.FinalPrediction())

	r.IsCorrected = true
	r.CorrectedPrediction = LabelNonRadical
	assert.Equal(t, LabelNonRadical, r.FinalPrediction())
}

func TestScrapeJob_Retry(t *testing.T) {
	failedAt := time.Now().Add(-3 * time.Second)
	tests := []struct {
		name      string
		job       ScrapeJob
		retryable bool
		canNow    bool
	}{
		{
			name:      "transient failure with attempts left",
			job:       ScrapeJob{Status: JobStatusFailed, ErrorCode: "TRANSIENT_NETWORK", MaxRetries: 2, LastFailedAt: &failedAt},
			retryable: true,
			canNow:    true,
		},
		{
			name:      "backoff not elapsed",
			job:       ScrapeJob{Status: JobStatusFailed, ErrorCode: "RATE_LIMITED", MaxRetries: 3, RetryCount: 2, LastFailedAt: &failedAt},
			retryable: true,
			canNow:    false,
		},
		{
			name: "quota failure never retries",
			job:  ScrapeJob{Status: JobStatusFailed, ErrorCode: "QUOTA_EXCEEDED", MaxRetries: 2},
		},
		{
			name: "attempts exhausted",
			job:  ScrapeJob{Status: JobStatusFailed, ErrorCode: "TRANSIENT_NETWORK", MaxRetries: 2, RetryCount: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.job.IsRetryable())
			assert.Equal(t, tt.canNow, tt.job.CanRetryNow(time.Second))
			assert.Equal(t, !tt.retryable, tt.job.IsTerminal())
		})
	}
}

func TestScrapeJob_Params(t *testing.T) {
	db := setupTestDB(t)
	job := &ScrapeJob{
		Platform:   PlatformInstagram,
		Keyword:    "banjir",
		MaxResults: 10,
		DatasetID:  1,
		Params:     map[string]interface{}{"search_type": "user", "results_limit": 40},
	}
	require.NoError(t, db.Create(job).Error)

	var loaded ScrapeJob
	require.NoError(t, db.First(&loaded, job.ID).Error)

	s, ok := loaded.GetParamString("search_type")
	assert.True(t, ok)
	assert.Equal(t, "user", s)

	n, ok := loaded.GetParamInt("results_limit")
	assert.True(t, ok)
	assert.Equal(t, 40, n)

	_, ok = loaded.GetParamInt("missing")
	assert.False(t, ok)
	assert.Equal(t, JobStatusPending, loaded.Status)
}

func TestIsTerminalRunStatus(t *testing.T) {
	assert.True(t, IsTerminalRunStatus(RunStatusSucceeded))
	assert.True(t, IsTerminalRunStatus(RunStatusTimedOut))
	assert.False(t, IsTerminalRunStatus(RunStatusRunning))
	assert.False(t, IsTerminalRunStatus(RunStatusReady))
}
