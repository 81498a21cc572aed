package services

import (
	"errors"
	"regexp"

	"gorm.io/gorm"

	"github.com/argus-sec/argus/backend/internal/models"
)

var (
	ErrRuleNotFound    = errors.New("rule not found")
	ErrRuleInvalid     = errors.New("rule name, pattern, and severity are required")
	ErrInvalidPattern  = errors.New("rule pattern does not compile")
	ErrInvalidSeverity = errors.New("invalid severity")
)

// RuleService owns CRUD over the detection rule store. Every mutation is
// expected to be followed by an engine reload so the active snapshot tracks
// the store.
type RuleService struct {
	db *gorm.DB
}

// NewRuleService returns a RuleService using the provided DB.
func NewRuleService(db *gorm.DB) *RuleService {
	return &RuleService{db: db}
}

// List returns all rules ordered by severity then id.
func (s *RuleService) List() ([]models.Rule, error) {
	var rules []models.Rule
	if err := s.db.Order("severity DESC, id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Get returns a single rule by id.
func (s *RuleService) Get(id uint) (*models.Rule, error) {
	var rule models.Rule
	if err := s.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// Create validates and stores a new rule. Patterns are checked with the same
// case-insensitive compilation the engine uses, so a rule accepted here is
// guaranteed loadable.
func (s *RuleService) Create(rule *models.Rule) error {
	if err := validateRule(rule.Name, rule.Pattern, rule.Severity); err != nil {
		return err
	}
	return s.db.Create(rule).Error
}

// Update replaces the mutable fields of an existing rule.
func (s *RuleService) Update(id uint, name, description, pattern, severity string) (*models.Rule, error) {
	if err := validateRule(name, pattern, severity); err != nil {
		return nil, err
	}

	rule, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	rule.Name = name
	rule.Description = description
	rule.Pattern = pattern
	rule.Severity = severity
	if err := s.db.Save(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// Toggle flips the enabled flag of a rule.
func (s *RuleService) Toggle(id uint) (*models.Rule, error) {
	rule, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	rule.Enabled = !rule.Enabled
	if err := s.db.Save(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// Delete removes a rule. Threat records referencing it keep their rule_id.
func (s *RuleService) Delete(id uint) error {
	res := s.db.Delete(&models.Rule{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// TopByBlocked returns the rules with the highest match counts, for the
// dashboard summary.
func (s *RuleService) TopByBlocked(limit int) ([]models.Rule, error) {
	var rules []models.Rule
	if err := s.db.Order("blocked_count DESC").Limit(limit).Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func validateRule(name, pattern, severity string) error {
	if name == "" || pattern == "" || severity == "" {
		return ErrRuleInvalid
	}
	if !models.ValidSeverity(severity) {
		return ErrInvalidSeverity
	}
	if _, err := regexp.Compile("(?i)" + pattern); err != nil {
		return ErrInvalidPattern
	}
	return nil
}
