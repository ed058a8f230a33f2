package scrape

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/jobs"
)

var jobStatuses = map[models.JobStatus]bool{
	models.JobStatusPending:   true,
	models.JobStatusRunning:   true,
	models.JobStatusStaged:    true,
	models.JobStatusCommitted: true,
	models.JobStatusFailed:    true,
	models.JobStatusCancelled: true,
}

// GetList lists the caller's scrape jobs, newest first
// @Summary      List scrape jobs
// @Tags         scrape
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        status query string false "Filter by job status"
// @Param        limit query int false "Page size" default(50)
// @Param        offset query int false "Offset"
// @Success      200 {object} types.ScrapeJobsResponse
// @Failure      400 {object} types.ErrorResponse
// @Router       /api/v1/scrape [get]
func GetList(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := types.OwnerID(c)
		if !ok {
			return
		}
		limit, offset, ok := types.ParsePagination(c)
		if !ok {
			return
		}
		status := models.JobStatus(c.Query("status"))
		if status != "" && !jobStatuses[status] {
			types.SendBadRequest(c, "unknown job status "+string(status))
			return
		}

		list, total, err := deps.Jobs.List(c.Request.Context(), jobs.ListFilters{
			OwnerID: &owner,
			Status:  status,
			Limit:   limit,
			Offset:  offset,
		})
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.ScrapeJobsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Jobs:         list,
			Count:        len(list),
			Total:        total,
			Offset:       offset,
		})
	}
}
