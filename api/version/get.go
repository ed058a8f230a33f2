package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Info describes the running build
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Current is reported by GET /. The CLI overwrites Version at startup.
var Current = Info{
	Name:        "Waskita API",
	Version:     "dev",
	Description: "Social media scraping, cleaning and radicalism classification pipeline",
	Status:      "running",
}

// Get handles version requests
// @Summary      Service version
// @Tags         health
// @Produce      json
// @Success      200 {object} version.Info
// @Router       / [get]
func Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Current)
	}
}
