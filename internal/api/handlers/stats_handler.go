package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/argus-sec/argus/backend/internal/services"
)

// StatsHandler serves aggregated statistics and IP reputation reads.
type StatsHandler struct {
	tracking *services.TrackingService
	alerts   *services.AlertService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(tracking *services.TrackingService, alerts *services.AlertService) *StatsHandler {
	return &StatsHandler{tracking: tracking, alerts: alerts}
}

// GetStatistics returns windowed totals plus per-day rows. Reading the totals
// also consults the alert escalator with the cumulative blocked count.
func (h *StatsHandler) GetStatistics(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		days = 30
	}

	totals, err := h.tracking.TotalsSince(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	daily, err := h.tracking.DailySince(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.alerts.CheckThresholds(totals.BlockedRequests)

	c.JSON(http.StatusOK, gin.H{
		"statistics":  totals,
		"daily":       daily,
		"period_days": days,
	})
}

// GetIPTracking returns tracked source addresses, optionally filtered by status.
func (h *StatsHandler) GetIPTracking(c *gin.Context) {
	records, err := h.tracking.ListIPs(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ips": records})
}
