package classifications

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
)

// RegisterRoutes registers classification routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.PUT("/:id/correction", PutCorrection(deps))
}
