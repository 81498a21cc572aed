package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/argus-sec/argus/backend/internal/services"
)

// DashboardHandler serves the aggregated dashboard summary.
type DashboardHandler struct {
	tracking *services.TrackingService
	threats  *services.ThreatService
	rules    *services.RuleService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(tracking *services.TrackingService, threats *services.ThreatService, rules *services.RuleService) *DashboardHandler {
	return &DashboardHandler{tracking: tracking, threats: threats, rules: rules}
}

// Summary returns today's counters, the most recent threats, and the rules
// with the highest match counts. unique_ips is recomputed from the tracked
// address table on every read.
func (h *DashboardHandler) Summary(c *gin.Context) {
	today, err := h.tracking.Today()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if uniqueIPs, err := h.tracking.UniqueIPCount(); err == nil {
		today.UniqueIPs = uniqueIPs
	}

	recent, err := h.threats.Recent(10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	topRules, err := h.rules.TopByBlocked(10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"today":          today,
		"recent_threats": recent,
		"top_rules":      topRules,
		"timestamp":      time.Now(),
	})
}
