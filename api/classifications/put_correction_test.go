package classifications

import (
	"bytes"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutCorrection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	result := &models.ClassificationResult{
		DataType:       models.SourceUpload,
		DataID:         1,
		ModelName:      "naive_bayes",
		Prediction:     models.LabelNonRadical,
		ProbRadical:    0.2,
		ProbNonRadical: 0.8,
	}
	require.NoError(t, db.DB.Create(result).Error)

	deps := &types.Dependencies{
		DB:             db,
		Classification: classification.NewService(db.DB, nil, nil, nil, nil),
	}
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1/classifications"), deps)

	put := func(id uint, body string, owner string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/classifications/%d/correction", id), bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if owner != "" {
			req.Header.Set(types.UserIDHeader, owner)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	tests := []struct {
		name           string
		id             uint
		body           string
		expectedStatus int
	}{
		{"missing label", result.ID, `{}`, http.StatusBadRequest},
		{"unknown label", result.ID, `{"label":"netral"}`, http.StatusBadRequest},
		{"unknown result", 999, `{"label":"radikal"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, put(tt.id, tt.body, "").Code)
		})
	}

	w := put(result.ID, `{"label":" Radikal "}`, "7")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var corrected models.ClassificationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &corrected))
	assert.True(t, corrected.IsCorrected)
	assert.Equal(t, models.LabelRadical, corrected.CorrectedPrediction)
	assert.Equal(t, models.LabelNonRadical, corrected.Prediction, "the model prediction is kept")
	require.NotNil(t, corrected.CorrectedBy)
	assert.Equal(t, uint(7), *corrected.CorrectedBy)
	assert.Equal(t, models.LabelRadical, corrected.FinalPrediction())
}
