package scrape

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
)

// GetSchema describes the staged results of a job so the caller can pick a column mapping
// @Summary      Get staged result schema
// @Description  Returns columns, sample rows and content column candidates once the job is staged.
// @Tags         scrape
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        id path int true "Job ID"
// @Success      200 {object} mapping.Schema
// @Failure      404 {object} types.ErrorResponse
// @Failure      409 {object} types.ErrorResponse "Job has not finished"
// @Failure      410 {object} types.ErrorResponse "Staged results expired or already committed"
// @Failure      422 {object} types.ErrorResponse "The scrape returned no data"
// @Router       /api/v1/scrape/{id}/schema [get]
func GetSchema(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := loadJob(c, deps)
		if !ok {
			return
		}

		switch job.Status {
		case models.JobStatusStaged:
			schema, err := deps.Negotiator.GetSchema(c.Request.Context(), job.PendingToken)
			if err != nil {
				types.SendError(c, err)
				return
			}
			types.SendSuccess(c, schema)
		case models.JobStatusPending, models.JobStatusRunning:
			types.SendError(c, apperrors.Conflict("scrape job", "results are not ready, job is "+string(job.Status)).
				WithDetail("job_status", job.Status))
		case models.JobStatusCommitted:
			types.SendError(c, apperrors.StaleMappingError(job.PendingToken))
		case models.JobStatusCancelled:
			types.SendError(c, apperrors.Conflict("scrape job", "job was cancelled"))
		default:
			types.SendError(c, jobError(job))
		}
	}
}

// jobError rebuilds the error a failed job recorded
func jobError(job *models.ScrapeJob) error {
	code := apperrors.ErrorCode(job.ErrorCode)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	msg := job.Error
	if msg == "" {
		msg = "scrape job failed"
	}
	return apperrors.New(code, msg).
		WithDetail("job_id", job.ID).
		WithDetail("retryable", job.IsRetryable())
}
