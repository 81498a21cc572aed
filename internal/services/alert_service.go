package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/containrrr/shoutrrr"

	"github.com/argus-sec/argus/backend/internal/logger"
	"github.com/argus-sec/argus/backend/internal/metrics"
	"github.com/argus-sec/argus/backend/internal/models"
)

// Alert levels, highest first.
const (
	AlertCritical = "CRITICAL"
	AlertHigh     = "HIGH"
	AlertMedium   = "MEDIUM"
)

// Blocked-request thresholds for escalation.
const (
	criticalThreshold = 50
	highThreshold     = 20
	mediumThreshold   = 10
)

// AlertService raises alerts when blocked-traffic thresholds are crossed and
// deduplicates them per (level, calendar day). The dedup cache is process
// local; correctness assumes a single instance.
type AlertService struct {
	mu   sync.Mutex
	sent map[string]time.Time

	// urls are shoutrrr destinations; delivery failures are log-only.
	urls []string
}

// NewAlertService returns an AlertService delivering to the given shoutrrr URLs.
func NewAlertService(urls []string) *AlertService {
	return &AlertService{
		sent: make(map[string]time.Time),
		urls: urls,
	}
}

// CheckThresholds fires at most the single highest alert level reached by the
// cumulative blocked count. Called from the statistics read path.
func (s *AlertService) CheckThresholds(blocked int64) {
	switch {
	case blocked >= criticalThreshold:
		s.sendAlert(AlertCritical, fmt.Sprintf("Critical threat level reached: %d attacks blocked today", blocked))
	case blocked >= highThreshold:
		s.sendAlert(AlertHigh, fmt.Sprintf("High threat level: %d attacks blocked today", blocked))
	case blocked >= mediumThreshold:
		s.sendAlert(AlertMedium, fmt.Sprintf("Moderate threat level: %d attacks blocked today", blocked))
	}
}

// sendAlert records and emits an alert unless one with the same level was
// already sent today.
func (s *AlertService) sendAlert(level, message string) {
	now := time.Now()
	key := level + "-" + models.DateKey(now)

	s.mu.Lock()
	if _, dup := s.sent[key]; dup {
		s.mu.Unlock()
		return
	}
	s.sent[key] = now
	s.mu.Unlock()

	logger.WithFields(map[string]interface{}{
		"level":   level,
		"message": message,
	}).Warn("security alert")
	metrics.IncAlert(level)

	s.deliver(level, message)
}

func (s *AlertService) deliver(level, message string) {
	body := fmt.Sprintf("[%s] %s", level, message)
	for _, url := range s.urls {
		go func(u string) {
			if err := shoutrrr.Send(u, body); err != nil {
				logger.WithFields(map[string]interface{}{"error": err.Error()}).Error("failed to deliver alert notification")
			}
		}(url)
	}
}

// NotifyThreat is the per-threat hook: high and critical severity threats are
// surfaced immediately, independent of aggregate thresholds and without
// touching the dedup cache.
func (s *AlertService) NotifyThreat(threat *models.Threat) {
	if threat == nil {
		return
	}
	if threat.Severity != models.SeverityHigh && threat.Severity != models.SeverityCritical {
		return
	}

	logger.WithFields(map[string]interface{}{
		"source_ip":   threat.SourceIP,
		"threat_type": threat.ThreatType,
		"severity":    threat.Severity,
	}).Warn("high-severity threat detected")

	s.deliver(AlertHigh, fmt.Sprintf("High-severity threat detected from %s: %s", threat.SourceIP, threat.ThreatType))
}

// ClearExpired purges dedup keys from previous days. Invoked by the cron
// scheduler; the service never schedules itself.
func (s *AlertService) ClearExpired() {
	today := models.DateKey(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, sentAt := range s.sent {
		if models.DateKey(sentAt) != today {
			delete(s.sent, key)
		}
	}
}
