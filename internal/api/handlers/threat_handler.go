package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/argus-sec/argus/backend/internal/logger"
	"github.com/argus-sec/argus/backend/internal/services"
)

// ThreatHandler serves the threat history admin endpoints.
type ThreatHandler struct {
	threats *services.ThreatService
}

// NewThreatHandler creates a new ThreatHandler.
func NewThreatHandler(threats *services.ThreatService) *ThreatHandler {
	return &ThreatHandler{threats: threats}
}

// List returns paginated threats, optionally filtered by severity.
func (h *ThreatHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	threats, total, err := h.threats.List(limit, offset, c.Query("severity"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"threats": threats,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// Get returns one threat by id.
func (h *ThreatHandler) Get(c *gin.Context) {
	threat, err := h.threats.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrThreatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Threat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"threat": threat})
}

// Clear deletes the entire threat history.
func (h *ThreatHandler) Clear(c *gin.Context) {
	deleted, err := h.threats.Clear()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.WithFields(map[string]interface{}{"deleted": deleted}).Info("threat history cleared")
	c.JSON(http.StatusOK, gin.H{"message": "All threats cleared", "deleted": deleted})
}
