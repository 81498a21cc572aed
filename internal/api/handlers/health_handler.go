package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/argus-sec/argus/backend/internal/version"
)

var startTime = time.Now()

// HealthHandler responds with basic service metadata for uptime checks.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   version.Name,
		"version":   version.Version,
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).Seconds(),
	})
}
