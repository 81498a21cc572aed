package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/argus-sec/argus/backend/internal/engine"
	"github.com/argus-sec/argus/backend/internal/logger"
	"github.com/argus-sec/argus/backend/internal/metrics"
	"github.com/argus-sec/argus/backend/internal/realtime"
	"github.com/argus-sec/argus/backend/internal/services"
)

// maxInspectBody caps how much of a request body is read for inspection.
const maxInspectBody = 10 << 20

// skipPrefixes are paths the inspector never scans: the admin surface, the
// realtime channel, and operational endpoints.
var skipPrefixes = []string{"/health", "/admin", "/ws", "/metrics"}

// Inspector returns the intrusion-prevention middleware. Every request is
// classified against the active rule snapshot; a match answers 403
// immediately while all bookkeeping (threat record, counters, broadcast,
// notification) runs fire-and-forget so persistence latency never delays the
// response. Bookkeeping failures are logged and absorbed.
func Inspector(eng *engine.Engine, threats *services.ThreatService, tracking *services.TrackingService, alerts *services.AlertService, hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		req := buildRequest(c)
		metrics.IncEvaluated()

		res := eng.Analyze(req)
		if !res.Detected {
			go func(ip string) {
				if err := tracking.RecordRequest(false); err != nil {
					logger.WithFields(map[string]interface{}{"error": err.Error()}).Error("failed to update statistics")
				}
				if err := tracking.TrackIP(ip, false); err != nil {
					logger.WithFields(map[string]interface{}{"error": err.Error()}).Error("failed to track ip")
				}
			}(req.ClientIP())

			c.Next()
			return
		}

		threat := res.Threat
		metrics.IncBlocked()
		metrics.IncThreat(threat.Severity)

		go func() {
			if err := threats.Log(threat); err != nil {
				logger.WithFields(map[string]interface{}{"threat_id": threat.ID, "error": err.Error()}).Error("failed to log threat")
			}
			if err := tracking.TrackIP(threat.SourceIP, true); err != nil {
				logger.WithFields(map[string]interface{}{"error": err.Error()}).Error("failed to track ip")
			}
			if err := tracking.RecordRequest(true); err != nil {
				logger.WithFields(map[string]interface{}{"error": err.Error()}).Error("failed to update statistics")
			}
			hub.Broadcast("threat-detected", threat)
			alerts.NotifyThreat(threat)
		}()

		logger.WithFields(map[string]interface{}{
			"threat_type": threat.ThreatType,
			"source_ip":   threat.SourceIP,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
		}).Warn("threat blocked")

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":       "Forbidden",
			"message":     "Security threat detected and blocked by Intrusion Prevention System",
			"threat_id":   threat.ID,
			"threat_type": threat.ThreatType,
			"severity":    threat.Severity,
			"timestamp":   threat.Timestamp,
		})
	}
}

// buildRequest snapshots the inbound request into the engine's transport-free
// representation, restoring the body so downstream handlers still see it.
func buildRequest(c *gin.Context) *engine.Request {
	var body string
	if c.Request.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInspectBody))
		if err == nil {
			body = string(raw)
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), c.Request.Body))
		}
	}

	query := make(map[string]string)
	for key, vals := range c.Request.URL.Query() {
		if len(vals) > 0 {
			query[key] = vals[0]
		}
	}

	params := make(map[string]string)
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}

	return &engine.Request{
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		Query:        query,
		Params:       params,
		Body:         body,
		UserAgent:    c.Request.Header.Get("User-Agent"),
		Referer:      c.Request.Header.Get("Referer"),
		ForwardedFor: c.Request.Header.Get("X-Forwarded-For"),
		RealIP:       c.Request.Header.Get("X-Real-IP"),
		RemoteAddr:   c.Request.RemoteAddr,
	}
}
