package scrape

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/services/mapping"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
)

// PostMapping applies a column mapping to staged results and writes the records
// @Summary      Commit column mapping
// @Description  Consumes the staging token. Resubmitting the same token returns 410.
// @Tags         scrape
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        request body types.MappingRequest true "Token and chosen columns"
// @Success      200 {object} types.MappingResponse
// @Failure      400 {object} types.ErrorResponse "Unknown column"
// @Failure      410 {object} types.ErrorResponse "Token expired or already used"
// @Router       /api/v1/scrape/mapping [post]
func PostMapping(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body types.MappingRequest
		if !types.BindJSONOrError(c, &body) {
			return
		}
		owner, ok := types.OwnerID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		schema, err := deps.Negotiator.GetSchema(ctx, body.Token)
		if err != nil {
			types.SendError(c, err)
			return
		}
		if schema.Context.OwnerID != owner {
			types.SendError(c, apperrors.StaleMappingError(body.Token))
			return
		}

		res, err := deps.Negotiator.Commit(ctx, body.Token, mapping.Mapping{
			ContentColumn:  body.ContentColumn,
			UsernameColumn: body.UsernameColumn,
			URLColumn:      body.URLColumn,
		})
		if err != nil {
			types.SendError(c, err)
			return
		}

		if jobID := res.Context.JobID; jobID != 0 && deps.Jobs != nil {
			if err := deps.Jobs.MarkCommitted(ctx, jobID); err != nil {
				deps.Log().Warn("Failed to mark scrape job committed", logger.Uint("job_id", jobID), logger.Error(err))
			}
		}

		types.SendSuccess(c, types.MappingResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "records written"},
			CommitResult: *res,
			JobID:        res.Context.JobID,
		})
	}
}
