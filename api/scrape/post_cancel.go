package scrape

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/pkg/logger"
)

// PostCancel cancels a scrape job. A running job stops at the worker's next poll
// and its remote run is aborted; staged results are discarded.
// @Summary      Cancel scrape job
// @Tags         scrape
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        id path int true "Job ID"
// @Success      200 {object} types.ScrapeJobResponse
// @Failure      404 {object} types.ErrorResponse
// @Failure      409 {object} types.ErrorResponse "Job already committed"
// @Router       /api/v1/scrape/{id}/cancel [post]
func PostCancel(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := loadJob(c, deps)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		updated, token, err := deps.Jobs.Cancel(ctx, job.ID)
		if err != nil {
			types.SendError(c, err)
			return
		}
		if token != "" && deps.Negotiator != nil {
			if err := deps.Negotiator.Abandon(ctx, token); err != nil {
				deps.Log().Warn("Failed to discard staged results", logger.Uint("job_id", job.ID), logger.Error(err))
			}
		}

		message := "scrape job cancelled"
		if updated.Status == models.JobStatusRunning {
			message = "cancellation requested, the running scrape will stop shortly"
		}
		types.SendSuccess(c, types.ScrapeJobResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: message},
			Job:          updated,
		})
	}
}
