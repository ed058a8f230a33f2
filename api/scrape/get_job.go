package scrape

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/progress"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
)

// loadJob fetches the job named by the :id parameter and hides jobs owned by other callers
func loadJob(c *gin.Context, deps *types.Dependencies) (*models.ScrapeJob, bool) {
	id, ok := types.ParseUintParam(c, "id")
	if !ok {
		return nil, false
	}
	owner, ok := types.OwnerID(c)
	if !ok {
		return nil, false
	}
	job, err := deps.Jobs.Get(c.Request.Context(), id)
	if err != nil {
		types.SendError(c, err)
		return nil, false
	}
	if job.OwnerID != owner {
		types.SendError(c, apperrors.NotFound("scrape job", id))
		return nil, false
	}
	return job, true
}

// GetJob returns a scrape job and the progress of its remote run
// @Summary      Get scrape job
// @Tags         scrape
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        id path int true "Job ID"
// @Success      200 {object} types.ScrapeJobResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/scrape/{id} [get]
func GetJob(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := loadJob(c, deps)
		if !ok {
			return
		}

		var p progress.Progress
		if job.Status == models.JobStatusRunning && job.RunID != "" && deps.Progress != nil {
			p = deps.Progress.GetProgress(c.Request.Context(), job.RunID)
		} else {
			p = snapshot(job)
		}

		types.SendSuccess(c, types.ScrapeJobResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Job:          job,
			Progress:     &p,
		})
	}
}

// snapshot builds a progress report from the last state the worker recorded
func snapshot(job *models.ScrapeJob) progress.Progress {
	p := progress.Progress{
		RunID:              job.RunID,
		Status:             job.RemoteStatus,
		ProgressPercentage: float64(job.Progress),
		ItemsProcessed:     job.ItemCount,
		StartedAt:          job.StartedAt,
		FinishedAt:         job.FinishedAt,
	}
	switch {
	case job.Status == models.JobStatusFailed:
		p.Status = progress.StatusError
		p.Error = job.Error
	case p.Status == "":
		p.Status = models.RunStatusReady
	}
	p.StatusMessage = progress.StatusMessage(p.Status)
	return p
}
