package datasets

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
)

// RegisterRoutes registers dataset routes. processMiddleware guards the batch
// cleaning and classification endpoints.
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies, processMiddleware gin.HandlerFunc) {
	router.GET("", List(deps))
	router.GET("/:id", Get(deps))
	router.DELETE("/:id", Delete(deps))
	router.GET("/:id/classifications", GetClassifications(deps))
	router.GET("/:id/classifications/export", ExportClassifications(deps))

	router.POST("/:id/clean", processMiddleware, PostClean(deps))
	router.POST("/:id/classify", processMiddleware, PostClassify(deps))
}
