package datasets

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/classification"
	"github.com/killallgit/waskita-api/internal/services/cleaning"
	datasetsService "github.com/killallgit/waskita-api/internal/services/datasets"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
)

// loadDataset fetches the dataset named by :id, hiding datasets owned by other callers
func loadDataset(c *gin.Context, deps *types.Dependencies) (*models.Dataset, bool) {
	id, ok := types.ParseUintParam(c, "id")
	if !ok {
		return nil, false
	}
	owner, ok := types.OwnerID(c)
	if !ok {
		return nil, false
	}
	ds, err := deps.Datasets.GetDataset(c.Request.Context(), id)
	if err != nil {
		types.SendError(c, err)
		return nil, false
	}
	if ds.OwnerID != owner {
		types.SendError(c, apperrors.NotFound("dataset", id))
		return nil, false
	}
	return ds, true
}

// List returns the caller's datasets
// @Summary      List datasets
// @Tags         datasets
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        name query string false "Filter by name"
// @Param        limit query int false "Page size" default(50)
// @Param        offset query int false "Offset"
// @Success      200 {object} types.DatasetsResponse
// @Router       /api/v1/datasets [get]
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := types.OwnerID(c)
		if !ok {
			return
		}
		limit, offset, ok := types.ParsePagination(c)
		if !ok {
			return
		}

		list, total, err := deps.Datasets.ListDatasets(c.Request.Context(), datasetsService.ListFilters{
			OwnerID: &owner,
			Name:    strings.TrimSpace(c.Query("name")),
			Limit:   limit,
			Offset:  offset,
		})
		if err != nil {
			types.SendError(c, err)
			return
		}
		types.SendSuccess(c, types.DatasetsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Datasets:     list,
			Count:        len(list),
			Total:        total,
			Offset:       offset,
		})
	}
}

// Get returns one dataset with its counters
// @Summary      Get dataset
// @Tags         datasets
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        id path int true "Dataset ID"
// @Success      200 {object} types.DatasetResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/datasets/{id} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, ok := loadDataset(c, deps)
		if !ok {
			return
		}
		types.SendSuccess(c, types.DatasetResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Dataset:      ds,
		})
	}
}

// Delete removes a dataset with its records and classification results
// @Summary      Delete dataset
// @Tags         datasets
// @Param        X-User-ID header int false "Caller id"
// @Param        id path int true "Dataset ID"
// @Success      204
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/datasets/{id} [delete]
func Delete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, ok := loadDataset(c, deps)
		if !ok {
			return
		}
		if err := deps.Datasets.DeleteDataset(c.Request.Context(), ds.ID); err != nil {
			types.SendError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// PostClean promotes every raw record of the dataset to a clean record
// @Summary      Clean dataset
// @Description  Cleans raw records and drops duplicates. scope selects where duplicates are looked for.
// @Tags         datasets
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        id path int true "Dataset ID"
// @Param        scope query string false "Duplicate scope: global or dataset"
// @Success      200 {object} cleaning.BatchResult
// @Failure      400 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/datasets/{id}/clean [post]
func PostClean(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, ok := loadDataset(c, deps)
		if !ok {
			return
		}
		scope, err := cleaning.ParseScope(c.Query("scope"), deps.Cleaning.DefaultScope())
		if err != nil {
			types.SendError(c, err)
			return
		}

		res, err := deps.Cleaning.CleanDataset(c.Request.Context(), ds.ID, scope)
		if err != nil {
			types.SendError(c, err)
			return
		}
		types.SendSuccess(c, res)
	}
}

// PostClassify runs every loaded model over the dataset's clean records
// @Summary      Classify dataset
// @Tags         datasets
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        id path int true "Dataset ID"
// @Success      200 {object} classification.BatchResult
// @Failure      404 {object} types.ErrorResponse
// @Failure      500 {object} types.ErrorResponse "No models are loaded"
// @Router       /api/v1/datasets/{id}/classify [post]
func PostClassify(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, ok := loadDataset(c, deps)
		if !ok {
			return
		}
		if deps.Classification == nil {
			types.SendError(c, apperrors.ConfigurationError("classifier.models", "no classification models are loaded"))
			return
		}

		res, err := deps.Classification.ClassifyDataset(c.Request.Context(), ds.ID)
		if err != nil {
			types.SendError(c, err)
			return
		}
		types.SendSuccess(c, res)
	}
}

// GetClassifications lists the dataset's classification results
// @Summary      List classification results
// @Tags         datasets
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        id path int true "Dataset ID"
// @Param        label query string false "Filter by final label: radikal or non-radikal"
// @Param        limit query int false "Page size" default(50)
// @Param        offset query int false "Offset"
// @Success      200 {object} types.ClassificationsResponse
// @Router       /api/v1/datasets/{id}/classifications [get]
func GetClassifications(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, ok := loadDataset(c, deps)
		if !ok {
			return
		}
		limit, offset, ok := types.ParsePagination(c)
		if !ok {
			return
		}
		label := strings.TrimSpace(c.Query("label"))
		if label != "" && !models.IsValidLabel(label) {
			types.SendBadRequest(c, "label must be "+models.LabelRadical+" or "+models.LabelNonRadical)
			return
		}
		if deps.Classification == nil {
			types.SendError(c, apperrors.ConfigurationError("classifier.models", "no classification models are loaded"))
			return
		}

		results, total, err := deps.Classification.ListResults(c.Request.Context(), classification.ResultFilters{
			DatasetID: ds.ID,
			Label:     label,
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			types.SendError(c, err)
			return
		}
		types.SendSuccess(c, types.ClassificationsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Results:      results,
			Count:        len(results),
			Total:        total,
			Offset:       offset,
		})
	}
}

// ExportClassifications downloads the dataset's classification results as CSV or XLSX
// @Summary      Export classification results
// @Tags         datasets
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        X-User-ID header int false "Caller id"
// @Param        id path int true "Dataset ID"
// @Param        format query string false "csv or xlsx" default(csv)
// @Success      200 {file} file
// @Failure      400 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/datasets/{id}/classifications/export [get]
func ExportClassifications(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ds, ok := loadDataset(c, deps)
		if !ok {
			return
		}
		format, err := classification.ParseExportFormat(c.Query("format"))
		if err != nil {
			types.SendError(c, err)
			return
		}
		if deps.Classification == nil {
			types.SendError(c, apperrors.ConfigurationError("classifier.models", "no classification models are loaded"))
			return
		}

		export, err := deps.Classification.ExportResults(c.Request.Context(), ds.ID)
		if err != nil {
			types.SendError(c, err)
			return
		}

		var buf bytes.Buffer
		contentType := "text/csv; charset=utf-8"
		if format == classification.FormatXLSX {
			contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
			err = export.WriteXLSX(&buf)
		} else {
			err = export.WriteCSV(&buf)
		}
		if err != nil {
			types.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "writing export"))
			return
		}

		filename := fmt.Sprintf("classifications_%d_%s.%s", ds.ID, time.Now().UTC().Format("20060102_150405"), format)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, contentType, buf.Bytes())
	}
}
