package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/argus-sec/argus/backend/internal/engine"
	"github.com/argus-sec/argus/backend/internal/logger"
	"github.com/argus-sec/argus/backend/internal/models"
	"github.com/argus-sec/argus/backend/internal/services"
)

// RuleHandler exposes CRUD over detection rules. Every mutation reloads the
// engine so the active snapshot always reflects the store.
type RuleHandler struct {
	rules  *services.RuleService
	engine *engine.Engine
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(rules *services.RuleService, eng *engine.Engine) *RuleHandler {
	return &RuleHandler{rules: rules, engine: eng}
}

type rulePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Pattern     string `json:"pattern"`
	Severity    string `json:"severity"`
}

// List returns all rules.
func (h *RuleHandler) List(c *gin.Context) {
	rules, err := h.rules.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// Get returns a single rule.
func (h *RuleHandler) Get(c *gin.Context) {
	id, ok := parseRuleID(c)
	if !ok {
		return
	}

	rule, err := h.rules.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// Create stores a new rule and reloads the engine.
func (h *RuleHandler) Create(c *gin.Context) {
	var payload rulePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rule := models.Rule{
		Name:        payload.Name,
		Description: payload.Description,
		Pattern:     payload.Pattern,
		Severity:    payload.Severity,
		Enabled:     true,
	}
	if err := h.rules.Create(&rule); err != nil {
		if isRuleValidationErr(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reload()
	logger.WithFields(map[string]interface{}{"rule": rule.Name}).Info("detection rule created")
	c.JSON(http.StatusCreated, gin.H{"message": "Rule created successfully", "id": rule.ID})
}

// Update replaces a rule's fields and reloads the engine.
func (h *RuleHandler) Update(c *gin.Context) {
	id, ok := parseRuleID(c)
	if !ok {
		return
	}

	var payload rulePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rule, err := h.rules.Update(id, payload.Name, payload.Description, payload.Pattern, payload.Severity)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRuleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		case isRuleValidationErr(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.reload()
	c.JSON(http.StatusOK, gin.H{"message": "Rule updated successfully", "rule": rule})
}

// Toggle flips the enabled flag and reloads the engine.
func (h *RuleHandler) Toggle(c *gin.Context) {
	id, ok := parseRuleID(c)
	if !ok {
		return
	}

	rule, err := h.rules.Toggle(id)
	if err != nil {
		if errors.Is(err, services.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reload()
	c.JSON(http.StatusOK, gin.H{"message": "Rule status toggled", "rule": rule})
}

// Delete removes a rule and reloads the engine.
func (h *RuleHandler) Delete(c *gin.Context) {
	id, ok := parseRuleID(c)
	if !ok {
		return
	}

	if err := h.rules.Delete(id); err != nil {
		if errors.Is(err, services.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reload()
	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted successfully"})
}

func (h *RuleHandler) reload() {
	if err := h.engine.Reload(); err != nil {
		logger.WithFields(map[string]interface{}{"error": err.Error()}).Error("failed to reload rule engine")
	}
}

func parseRuleID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return 0, false
	}
	return uint(id), true
}

func isRuleValidationErr(err error) bool {
	return errors.Is(err, services.ErrRuleInvalid) ||
		errors.Is(err, services.ErrInvalidPattern) ||
		errors.Is(err, services.ErrInvalidSeverity)
}
