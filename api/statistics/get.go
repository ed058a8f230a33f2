package statistics

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
)

// Get returns the dashboard statistics row
// @Summary      Pipeline statistics
// @Description  Record totals by source and stage plus label totals, refreshed after every write.
// @Tags         statistics
// @Produce      json
// @Param        refresh query bool false "Recompute before returning"
// @Success      200 {object} types.StatisticsResponse
// @Router       /api/v1/statistics [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if c.Query("refresh") == "true" {
			if err := deps.Datasets.RefreshStatistics(ctx); err != nil {
				types.SendError(c, err)
				return
			}
		}

		stats, err := deps.Datasets.GetStatistics(ctx)
		if err != nil {
			types.SendError(c, err)
			return
		}
		types.SendSuccess(c, types.StatisticsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Statistics:   stats,
		})
	}
}
