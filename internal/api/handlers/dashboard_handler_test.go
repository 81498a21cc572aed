package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-sec/argus/backend/internal/models"
	"github.com/argus-sec/argus/backend/internal/services"
)

func TestDashboardHandler_Summary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := OpenTestDB(t)

	tracking := services.NewTrackingService(db)
	threats := services.NewThreatService(db)
	rules := services.NewRuleService(db)

	rule := models.Rule{Name: "SQL Injection", Pattern: "x", Severity: models.SeverityHigh, Enabled: true, BlockedCount: 3}
	require.NoError(t, db.Create(&rule).Error)

	require.NoError(t, tracking.RecordRequest(true))
	require.NoError(t, tracking.RecordRequest(false))
	require.NoError(t, tracking.TrackIP("10.0.0.1", true))
	require.NoError(t, tracking.TrackIP("10.0.0.2", false))

	require.NoError(t, threats.Log(&models.Threat{
		SourceIP:   "10.0.0.1",
		ThreatType: rule.Name,
		Severity:   rule.Severity,
		Timestamp:  time.Now(),
		RuleID:     rule.ID,
	}))

	handler := NewDashboardHandler(tracking, threats, rules)
	router := gin.New()
	router.GET("/admin/dashboard", handler.Summary)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Today         models.DailyStatistic `json:"today"`
		RecentThreats []models.Threat       `json:"recent_threats"`
		TopRules      []models.Rule         `json:"top_rules"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, int64(2), body.Today.TotalRequests)
	assert.Equal(t, int64(1), body.Today.BlockedRequests)
	assert.Equal(t, int64(2), body.Today.UniqueIPs) // recomputed from ip_tracking
	require.Len(t, body.RecentThreats, 1)
	assert.Equal(t, "SQL Injection", body.RecentThreats[0].ThreatType)
	require.NotEmpty(t, body.TopRules)
	assert.Equal(t, "SQL Injection", body.TopRules[0].Name)
}
