package statistics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/database"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/datasets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	ds := datasets.NewService(db.DB, datasets.NewRepository(db.DB), nil)
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1/statistics"), &types.Dependencies{DB: db, Datasets: ds})

	get := func(path string) types.StatisticsResponse {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp types.StatisticsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	resp := get("/api/v1/statistics")
	require.NotNil(t, resp.Statistics)
	assert.Zero(t, resp.Statistics.TotalRawUpload)

	require.NoError(t, db.DB.Create(&models.RawRecord{Source: models.SourceUpload, Content: "satu", Platform: models.PlatformManual}).Error)
	require.NoError(t, db.DB.Create(&models.RawRecord{Source: models.SourceScraper, Content: "dua", Platform: models.PlatformTwitter}).Error)

	resp = get("/api/v1/statistics?refresh=true")
	assert.Equal(t, int64(1), resp.Statistics.TotalRawUpload)
	assert.Equal(t, int64(1), resp.Statistics.TotalRawScraper)
}
