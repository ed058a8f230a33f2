package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/database"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/apify"
	"github.com/killallgit/waskita-api/internal/services/classification"
	"github.com/killallgit/waskita-api/internal/services/cleaning"
	"github.com/killallgit/waskita-api/internal/services/datasets"
	"github.com/killallgit/waskita-api/internal/services/ingest"
	"github.com/killallgit/waskita-api/internal/services/jobs"
	"github.com/killallgit/waskita-api/internal/services/mapping"
	"github.com/killallgit/waskita-api/internal/services/pending"
	"github.com/killallgit/waskita-api/internal/services/progress"
	"github.com/killallgit/waskita-api/internal/services/upload"
	"github.com/killallgit/waskita-api/internal/services/workers"
	"github.com/killallgit/waskita-api/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type IntegrationTestSuite struct {
	t      *testing.T
	db     *database.DB
	jobs   jobs.Service
	router *gin.Engine
}

// fakeScraper answers like the scraping service for a single finished run
func fakeScraper(t *testing.T, items []map[string]any) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/acts/"):
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "run-7", "status": "READY"}})
		case r.URL.Path == "/actor-runs/run-7":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "run-7", "status": "SUCCEEDED"}})
		case r.URL.Path == "/actor-runs/run-7/dataset":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "ds-7", "itemCount": len(items)}})
		case r.URL.Path == "/actor-runs/run-7/dataset/items":
			_ = json.NewEncoder(w).Encode(items)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func setupIntegrationTestSuite(t *testing.T, items []map[string]any) *IntegrationTestSuite {
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, db.Migrate(), "Failed to migrate test database")
	t.Cleanup(func() { _ = db.Close() })

	server := fakeScraper(t, items)
	client := apify.NewClient(apify.Config{
		APIToken:   "test-token",
		BaseURL:    server.URL,
		Timeout:    2 * time.Second,
		RetryDelay: time.Millisecond,
		RateLimit:  1000,
	})
	wait := apify.WaitOptions{MaxWait: 2 * time.Second, CheckInterval: 5 * time.Millisecond}

	store := pending.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	jobService := jobs.NewService(jobs.NewRepository(db.DB), time.Millisecond, nil)
	ds := datasets.NewService(db.DB, datasets.NewRepository(db.DB), nil)
	writer := ingest.NewWriter(db.DB, ds, nil)
	negotiator := mapping.NewNegotiator(store, writer, ds)

	vectors, err := classification.NewWordVectors(2, map[string][]float64{
		"jihad":  {1, 0},
		"serang": {1, 0},
		"banjir": {0, 1},
		"kota":   {0, 1},
	})
	require.NoError(t, err)
	nb, err := classification.NewGaussianNB(
		[]string{"Non-Radikal", "Radikal"},
		[]float64{0.5, 0.5},
		[][]float64{{0, 1}, {1, 0}},
		[][]float64{{0.1, 0.1}, {0.1, 0.1}},
	)
	require.NoError(t, err)

	deps := &types.Dependencies{
		DB:             db,
		Config:         &config.Config{Apify: config.ApifyConfig{APIToken: "test-token"}},
		Jobs:           jobService,
		Datasets:       ds,
		Negotiator:     negotiator,
		Upload:         upload.NewService(ds, writer, 0, nil),
		Cleaning:       cleaning.NewService(db.DB, ds, cleaning.ScopeGlobal, nil),
		Classification: classification.NewService(db.DB, vectors, map[string]classification.Classifier{"model1": nb}, ds, nil),
		Progress:       progress.NewTracker(client),
	}

	pool := workers.NewWorkerPool(jobService, 1, 10*time.Millisecond, nil)
	pool.RegisterProcessor(workers.NewScrapeProcessor(jobService, client, negotiator, ds, wait, nil))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, pool.Start(ctx))
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	router := gin.New()
	router.Use(gin.Recovery())

	rateLimiters := &sync.Map{}
	cleanupStop := make(chan struct{})
	t.Cleanup(func() { close(cleanupStop) })
	api.RegisterRoutes(router, deps, rateLimiters, cleanupStop, &sync.Once{})

	return &IntegrationTestSuite{t: t, db: db, jobs: jobService, router: router}
}

func (suite *IntegrationTestSuite) request(method, path string, body any, out any) int {
	suite.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(suite.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(types.UserIDHeader, "3")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		require.NoError(suite.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func (suite *IntegrationTestSuite) waitForStatus(jobID uint, status models.JobStatus) *models.ScrapeJob {
	suite.t.Helper()
	var job *models.ScrapeJob
	require.Eventually(suite.t, func() bool {
		var err error
		job, err = suite.jobs.Get(context.Background(), jobID)
		return err == nil && job.Status == status
	}, 5*time.Second, 10*time.Millisecond, "job never reached %s", status)
	return job
}

func posts() []map[string]any {
	texts := []string{
		"Ayo jihad serang mereka",
		"Banjir besar di kota lagi",
		"Banjir kota belum surut",
	}
	items := make([]map[string]any, 0, len(texts))
	for i, text := range texts {
		items = append(items, map[string]any{
			"id":     fmt.Sprintf("%d", 70+i),
			"text":   text,
			"url":    fmt.Sprintf("https://twitter.com/akun%d/status/%d", i, 70+i),
			"author": map[string]any{"userName": fmt.Sprintf("akun%d", i)},
		})
	}
	return items
}

func TestScrapeToClassificationPipeline(t *testing.T) {
	suite := setupIntegrationTestSuite(t, posts())

	var started types.ScrapeStartResponse
	code := suite.request(http.MethodPost, "/api/v1/scrape", types.ScrapeRequest{
		Platform: "twitter", Keyword: "banjir", MaxResults: 10,
	}, &started)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "Scraper Data Twitter - banjir", started.DatasetName)

	job := suite.waitForStatus(started.JobID, models.JobStatusStaged)
	assert.Equal(t, 3, job.ItemCount)

	var schema mapping.Schema
	require.Equal(t, http.StatusOK, suite.request(http.MethodGet, fmt.Sprintf("/api/v1/scrape/%d/schema", job.ID), nil, &schema))
	assert.Equal(t, 3, schema.TotalItems)
	assert.Contains(t, schema.Columns, "text")

	var committed types.MappingResponse
	require.Equal(t, http.StatusOK, suite.request(http.MethodPost, "/api/v1/scrape/mapping", types.MappingRequest{
		Token: schema.Token, ContentColumn: "text", UsernameColumn: "author.userName",
	}, &committed))
	assert.Equal(t, 3, committed.Added)
	suite.waitForStatus(job.ID, models.JobStatusCommitted)

	// the token is single use
	assert.Equal(t, http.StatusGone, suite.request(http.MethodPost, "/api/v1/scrape/mapping", types.MappingRequest{
		Token: schema.Token, ContentColumn: "text",
	}, nil))

	base := fmt.Sprintf("/api/v1/datasets/%d", started.DatasetID)
	var cleaned cleaning.BatchResult
	require.Equal(t, http.StatusOK, suite.request(http.MethodPost, base+"/clean", nil, &cleaned))
	assert.Equal(t, 3, cleaned.Cleaned)

	var classified classification.BatchResult
	require.Equal(t, http.StatusOK, suite.request(http.MethodPost, base+"/classify", nil, &classified))
	assert.Equal(t, 3, classified.Classified)

	var stats types.StatisticsResponse
	require.Equal(t, http.StatusOK, suite.request(http.MethodGet, "/api/v1/statistics", nil, &stats))
	assert.Equal(t, int64(3), stats.Statistics.TotalRawScraper)
	assert.Equal(t, int64(3), stats.Statistics.TotalCleanScrape)
	assert.Equal(t, int64(3), stats.Statistics.TotalClassified)
	assert.Equal(t, int64(1), stats.Statistics.TotalRadical)
	assert.Equal(t, int64(2), stats.Statistics.TotalNonRadical)
}

func TestScrapeWithoutResultsFails(t *testing.T) {
	suite := setupIntegrationTestSuite(t, []map[string]any{})

	var started types.ScrapeStartResponse
	require.Equal(t, http.StatusAccepted, suite.request(http.MethodPost, "/api/v1/scrape", types.ScrapeRequest{
		Platform: "instagram", Keyword: "sepi",
	}, &started))

	job := suite.waitForStatus(started.JobID, models.JobStatusFailed)
	assert.Equal(t, "NO_DATA", job.ErrorCode)

	assert.Equal(t, http.StatusUnprocessableEntity,
		suite.request(http.MethodGet, fmt.Sprintf("/api/v1/scrape/%d/schema", job.ID), nil, nil))
}
