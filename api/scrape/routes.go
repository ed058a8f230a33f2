package scrape

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
)

// RegisterRoutes registers scrape routes. startMiddleware guards the endpoint that
// spends scraping service credit.
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies, startMiddleware gin.HandlerFunc) {
	router.POST("", startMiddleware, PostStart(deps))
	router.GET("", GetList(deps))

	// registered before /:id so the static segment wins
	router.POST("/mapping", PostMapping(deps))

	router.GET("/:id", GetJob(deps))
	router.GET("/:id/schema", GetSchema(deps))
	router.POST("/:id/cancel", PostCancel(deps))
}
