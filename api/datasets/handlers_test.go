package datasets

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/database"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/classification"
	"github.com/killallgit/waskita-api/internal/services/cleaning"
	datasetsService "github.com/killallgit/waskita-api/internal/services/datasets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	db      *database.DB
	deps    *types.Dependencies
	router  *gin.Engine
	dataset *models.Dataset
}

func newFixture(t *testing.T) *fixture {
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	ds := datasetsService.NewService(db.DB, datasetsService.NewRepository(db.DB), nil)
	dataset, _, err := ds.FindOrCreate(context.Background(), "Unggahan Januari", 1, "")
	require.NoError(t, err)

	vectors, err := classification.NewWordVectors(2, map[string][]float64{
		"jihad":  {1, 0},
		"serang": {0.5, 0.5},
		"banjir": {0, 1},
	})
	require.NoError(t, err)
	nb, err := classification.NewGaussianNB(
		[]string{"Non-Radikal", "Radikal"},
		[]float64{0.5, 0.5},
		[][]float64{{0, 1}, {1, 0}},
		[][]float64{{0.1, 0.1}, {0.1, 0.1}},
	)
	require.NoError(t, err)

	f := &fixture{db: db, dataset: dataset}
	f.deps = &types.Dependencies{
		DB:             db,
		Datasets:       ds,
		Cleaning:       cleaning.NewService(db.DB, ds, cleaning.ScopeDataset, nil),
		Classification: classification.NewService(db.DB, vectors, map[string]classification.Classifier{"naive_bayes": nb}, ds, nil),
	}
	f.router = gin.New()
	RegisterRoutes(f.router.Group("/api/v1/datasets"), f.deps, func(c *gin.Context) { c.Next() })
	return f
}

func (f *fixture) addRaw(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, f.db.DB.Create(&models.RawRecord{
		DatasetID: &f.dataset.ID,
		OwnerID:   1,
		Source:    models.SourceUpload,
		Content:   content,
		Platform:  models.PlatformManual,
	}).Error)
}

func (f *fixture) do(method, path string, owner uint) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if owner != 0 {
		req.Header.Set(types.UserIDHeader, fmt.Sprint(owner))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestList(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.deps.Datasets.FindOrCreate(context.Background(), "milik orang lain", 2, "")
	require.NoError(t, err)

	w := f.do(http.MethodGet, "/api/v1/datasets", 1)
	require.Equal(t, http.StatusOK, w.Code)
	var resp types.DatasetsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Datasets, 1)
	assert.Equal(t, "Unggahan Januari", resp.Datasets[0].Name)

	w = f.do(http.MethodGet, "/api/v1/datasets?limit=0", 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	path := fmt.Sprintf("/api/v1/datasets/%d", f.dataset.ID)

	w := f.do(http.MethodGet, path, 1)
	require.Equal(t, http.StatusOK, w.Code)
	var resp types.DatasetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, f.dataset.ID, resp.Dataset.ID)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, path, 2).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/datasets/999", 1).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/datasets/0", 1).Code)
}

func TestCleanClassifyCorrectFlow(t *testing.T) {
	f := newFixture(t)
	f.addRaw(t, "Ayo JIHAD serang!!! https://t.co/x")
	f.addRaw(t, "ayo jihad serang")
	f.addRaw(t, "Banjir di @desa #bencana")
	f.addRaw(t, "!!! ???")
	base := fmt.Sprintf("/api/v1/datasets/%d", f.dataset.ID)

	w := f.do(http.MethodPost, base+"/clean?scope=galaxy", 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, base+"/clean", 1)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cleaned cleaning.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cleaned))
	assert.Equal(t, cleaning.ScopeDataset, cleaned.Scope)
	assert.Equal(t, 4, cleaned.Processed)
	assert.Equal(t, 2, cleaned.Cleaned)
	assert.Equal(t, 1, cleaned.Duplicates)
	assert.Equal(t, 1, cleaned.Empty)

	w = f.do(http.MethodPost, base+"/classify", 1)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var classified classification.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &classified))
	assert.Equal(t, 2, classified.Classified)

	w = f.do(http.MethodGet, base+"/classifications?label=radikal", 1)
	require.Equal(t, http.StatusOK, w.Code)
	var results types.ClassificationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Equal(t, int64(1), results.Total)
	assert.Equal(t, "naive_bayes", results.Results[0].ModelName)

	w = f.do(http.MethodGet, base+"/classifications?label=unknown", 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var ds models.Dataset
	require.NoError(t, f.db.DB.First(&ds, f.dataset.ID).Error)
	assert.Equal(t, 4, ds.TotalRecords)
	assert.Equal(t, 2, ds.CleanedRecords)
	assert.Equal(t, 2, ds.ClassifiedRecords)
}

func TestExportClassifications(t *testing.T) {
	f := newFixture(t)
	f.addRaw(t, "Ayo JIHAD serang!!!")
	f.addRaw(t, "Banjir di desa")
	base := fmt.Sprintf("/api/v1/datasets/%d", f.dataset.ID)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, base+"/clean", 1).Code)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, base+"/classify", 1).Code)

	w := f.do(http.MethodGet, base+"/classifications/export", 1)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "naive_bayes_prediction", records[0][7])
	assert.Equal(t, "Ayo JIHAD serang!!!", records[1][2])
	assert.Equal(t, models.LabelRadical, records[1][7])
	assert.Equal(t, models.LabelNonRadical, records[2][7])

	w = f.do(http.MethodGet, base+"/classifications/export?format=xlsx", 1)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	wb, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	rows, err := wb.GetRows(classification.ExportSheet)
	require.NoError(t, err)
	assert.Equal(t, records, rows)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, base+"/classifications/export?format=pdf", 1).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, base+"/classifications/export", 2).Code)
}

func TestPostClassify_NoModels(t *testing.T) {
	f := newFixture(t)
	f.deps.Classification = nil

	w := f.do(http.MethodPost, fmt.Sprintf("/api/v1/datasets/%d/classify", f.dataset.ID), 1)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CONFIGURATION", resp.Error)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.addRaw(t, "akan dihapus")
	path := fmt.Sprintf("/api/v1/datasets/%d", f.dataset.ID)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, path, 2).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, path, 1).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, path, 1).Code)

	var count int64
	require.NoError(t, f.db.DB.Model(&models.RawRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}
