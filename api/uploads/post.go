package uploads

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/services/upload"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
)

// FormFile is the multipart field holding the uploaded file
const FormFile = "file"

// Post ingests an uploaded CSV or Excel file into a dataset
// @Summary      Upload records
// @Description  Parses a CSV, XLSX or XLS file and writes each row as a raw record. Columns are
// @Description  guessed from common header names unless chosen explicitly.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        file formData file true "CSV, XLSX or XLS file"
// @Param        dataset_name formData string false "Target dataset, defaults to the file name"
// @Param        description formData string false "Dataset description"
// @Param        content_column formData string false "Column holding the post text"
// @Param        username_column formData string false "Column holding the author"
// @Param        url_column formData string false "Column holding the post URL"
// @Param        platform formData string false "Platform for every row, detected from the URL otherwise"
// @Success      201 {object} upload.Result
// @Failure      400 {object} types.ErrorResponse
// @Failure      413 {object} types.ErrorResponse
// @Router       /api/v1/uploads [post]
func Post(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := types.OwnerID(c)
		if !ok {
			return
		}
		header, err := c.FormFile(FormFile)
		if err != nil {
			types.SendError(c, apperrors.ValidationError(FormFile, "a file is required"))
			return
		}

		maxSize := deps.Upload.MaxSize()
		if header.Size > maxSize {
			c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{
				Status:  types.StatusError,
				Message: fmt.Sprintf("file exceeds the %d MB limit", maxSize>>20),
				Error:   string(apperrors.ErrCodeValidation),
			})
			return
		}

		f, err := header.Open()
		if err != nil {
			types.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "opening uploaded file"))
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
		if err != nil {
			types.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "reading uploaded file"))
			return
		}

		res, err := deps.Upload.Ingest(c.Request.Context(), upload.Request{
			Filename:       header.Filename,
			Data:           data,
			DatasetName:    c.PostForm("dataset_name"),
			Description:    c.PostForm("description"),
			OwnerID:        owner,
			ContentColumn:  c.PostForm("content_column"),
			UsernameColumn: c.PostForm("username_column"),
			URLColumn:      c.PostForm("url_column"),
			Platform:       c.PostForm("platform"),
		})
		if err != nil {
			types.SendError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}
