package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/killallgit/waskita-api/api/classifications"
	"github.com/killallgit/waskita-api/api/datasets"
	"github.com/killallgit/waskita-api/api/health"
	"github.com/killallgit/waskita-api/api/scrape"
	"github.com/killallgit/waskita-api/api/statistics"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/api/uploads"
	"github.com/killallgit/waskita-api/api/version"
	_ "github.com/killallgit/waskita-api/docs/swagger"
	"github.com/killallgit/waskita-api/internal/metrics"
	"github.com/killallgit/waskita-api/internal/services/upload"
)

// uploadOverhead leaves room for multipart boundaries and form fields
const uploadOverhead = 1 << 20

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) {
	if deps == nil {
		deps = &types.Dependencies{}
	}

	// Register public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine)

	// Register Swagger documentation route
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	docsGroup := engine.Group("/docs")
	docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if deps.Config != nil && deps.Config.Monitoring.MetricsEnabled {
		path := deps.Config.Monitoring.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(metrics.Handler()))
	}

	// Setup 404 handler
	engine.NoRoute(NotFoundHandler())

	v1 := engine.Group("/api/v1")
	limit := func(rps, burst int) gin.HandlerFunc {
		return PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, rps, burst)
	}

	if deps.Jobs != nil && deps.Datasets != nil && deps.Negotiator != nil {
		// Starting a scrape spends scraping service credit (1 req/s, burst of 3)
		scrapeGroup := v1.Group("/scrape")
		scrapeGroup.Use(RequestSizeLimit(), limit(10, 20))
		scrape.RegisterRoutes(scrapeGroup, deps, limit(1, 3))
	}

	if deps.Upload != nil {
		maxSize := deps.Upload.MaxSize()
		if maxSize <= 0 {
			maxSize = upload.DefaultMaxSize
		}
		uploadGroup := v1.Group("/uploads")
		uploadGroup.Use(RequestSizeLimitWithSize(maxSize+uploadOverhead), limit(2, 5))
		uploads.RegisterRoutes(uploadGroup, deps)
	}

	if deps.Datasets != nil {
		datasetGroup := v1.Group("/datasets")
		datasetGroup.Use(RequestSizeLimit(), limit(10, 20))
		// Cleaning and classification walk whole datasets (1 req/s, burst of 2)
		datasets.RegisterRoutes(datasetGroup, deps, limit(1, 2))

		statisticsGroup := v1.Group("/statistics")
		statisticsGroup.Use(limit(10, 20))
		statistics.RegisterRoutes(statisticsGroup, deps)
	}

	classificationGroup := v1.Group("/classifications")
	classificationGroup.Use(RequestSizeLimit(), limit(10, 20))
	classifications.RegisterRoutes(classificationGroup, deps)
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
