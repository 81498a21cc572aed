package engine

import (
	"fmt"
	"regexp"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/argus-sec/argus/backend/internal/logger"
	"github.com/argus-sec/argus/backend/internal/models"
)

// payloadLimit caps the serialized request stored on a threat record.
const payloadLimit = 1000

// unknownValue fills threat fields that could not be resolved from the request.
const unknownValue = "Unknown"

// CompiledRule pairs a stored rule with its case-insensitive matcher.
type CompiledRule struct {
	models.Rule
	matcher *regexp.Regexp
}

// snapshot is an immutable, ordered view of the active rule set. A new one is
// published wholesale on every reload; it is never mutated in place.
type snapshot struct {
	rules []*CompiledRule
}

// Engine compiles enabled rules into a snapshot and classifies requests
// against it. Analyze is pure in-memory work over the current snapshot and is
// safe for any number of concurrent callers; Reload swaps the snapshot
// atomically so readers never see a half-built list.
type Engine struct {
	db   *gorm.DB
	snap atomic.Pointer[snapshot]
}

// New returns an engine with an empty snapshot. Call Reload to activate rules.
func New(db *gorm.DB) *Engine {
	e := &Engine{db: db}
	e.snap.Store(&snapshot{})
	return e
}

// Reload reads all enabled rules in store order, compiles them and publishes
// the result as the new active snapshot. A rule whose pattern fails to compile
// is logged and skipped; it never aborts the reload. Callers invoke Reload
// after every rule create/update/delete/toggle.
func (e *Engine) Reload() error {
	var rules []models.Rule
	if err := e.db.Where("enabled = ?", true).Order("id").Find(&rules).Error; err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	compiled := make([]*CompiledRule, 0, len(rules))
	for _, r := range rules {
		matcher, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"rule":    r.Name,
				"rule_id": r.ID,
				"error":   err.Error(),
			}).Warn("skipping rule with invalid pattern")
			continue
		}
		compiled = append(compiled, &CompiledRule{Rule: r, matcher: matcher})
	}

	e.snap.Store(&snapshot{rules: compiled})
	logger.WithFields(map[string]interface{}{"rules": len(compiled)}).Info("detection rules loaded")
	return nil
}

// RuleCount returns the number of rules in the active snapshot.
func (e *Engine) RuleCount() int {
	return len(e.snap.Load().rules)
}

// Result is the outcome of classifying one request.
type Result struct {
	Detected bool
	Rule     *CompiledRule
	Threat   *models.Threat
}

// Analyze evaluates the request against the active snapshot in order and
// returns the first matching rule, with a ready-to-persist threat record.
// It mutates no shared state; all bookkeeping belongs to the caller.
func (e *Engine) Analyze(req *Request) Result {
	payload := req.Canonical()

	for _, rule := range e.snap.Load().rules {
		if !rule.matcher.MatchString(payload) {
			continue
		}

		userAgent := req.UserAgent
		if userAgent == "" {
			userAgent = unknownValue
		}

		threat := &models.Threat{
			ID:            uuid.NewString(),
			Timestamp:     time.Now(),
			SourceIP:      req.ClientIP(),
			ThreatType:    rule.Name,
			Severity:      rule.Severity,
			RequestMethod: req.Method,
			RequestPath:   req.Path,
			Payload:       truncate(payload, payloadLimit),
			UserAgent:     userAgent,
			Status:        models.ThreatStatusBlocked,
			RuleID:        rule.ID,
		}

		return Result{Detected: true, Rule: rule, Threat: threat}
	}

	return Result{}
}

// truncate cuts s to at most limit bytes, backing up to the nearest rune
// boundary so the stored payload stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
