package scrape

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/services/apify"
	"github.com/killallgit/waskita-api/internal/services/jobs"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
)

// DefaultDatasetName names the dataset a scrape writes to when the caller does not choose one
func DefaultDatasetName(platform, keyword string) string {
	title := platform
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	return "Scraper Data " + title + " - " + keyword
}

// PostStart queues a scrape job
// @Summary      Start a scrape
// @Description  Validates the request, resolves the target dataset and queues a scrape job.
// @Description  Poll the job and fetch its schema once it is staged.
// @Tags         scrape
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        request body types.ScrapeRequest true "Scrape parameters"
// @Success      202 {object} types.ScrapeStartResponse
// @Failure      400 {object} types.ErrorResponse "Invalid platform, keyword or date range"
// @Failure      500 {object} types.ErrorResponse "Scraping is not configured"
// @Router       /api/v1/scrape [post]
func PostStart(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body types.ScrapeRequest
		if !types.BindJSONOrError(c, &body) {
			return
		}
		owner, ok := types.OwnerID(c)
		if !ok {
			return
		}

		// fail before queueing anything when the token is missing
		if deps.Config != nil && strings.TrimSpace(deps.Config.Apify.APIToken) == "" {
			types.SendError(c, apperrors.ConfigurationError("apify.api_token", "the scraping service token is not set"))
			return
		}

		req := apify.StartRequest{
			Platform:       body.Platform,
			Keyword:        body.Keyword,
			DateFrom:       body.DateFrom,
			DateTo:         body.DateTo,
			MaxResults:     body.MaxResults,
			PlatformParams: body.PlatformParams,
		}
		if err := req.Normalize(); err != nil {
			types.SendError(c, err)
			return
		}

		name := strings.TrimSpace(body.DatasetName)
		if name == "" {
			name = DefaultDatasetName(req.Platform, req.Keyword)
		}
		ctx := c.Request.Context()
		dataset, _, err := deps.Datasets.FindOrCreate(ctx, name, owner, body.Description)
		if err != nil {
			types.SendError(c, err)
			return
		}

		job, err := deps.Jobs.Enqueue(ctx, jobs.EnqueueRequest{
			Platform:   req.Platform,
			Keyword:    req.Keyword,
			DateFrom:   req.DateFrom,
			DateTo:     req.DateTo,
			MaxResults: req.MaxResults,
			Params:     req.PlatformParams,
			DatasetID:  dataset.ID,
			OwnerID:    owner,
		})
		if err != nil {
			types.SendError(c, err)
			return
		}

		deps.Log().Info("Scrape job queued",
			logger.Uint("job_id", job.ID),
			logger.String("platform", job.Platform),
			logger.Uint("dataset_id", dataset.ID))

		types.SendAccepted(c, types.ScrapeStartResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusAccepted, Message: "scrape job queued"},
			JobID:        job.ID,
			DatasetID:    dataset.ID,
			DatasetName:  dataset.Name,
			JobStatus:    string(job.Status),
		})
	}
}
