package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/argus-sec/argus/backend/internal/logger"
	"github.com/argus-sec/argus/backend/internal/models"
)

var ErrThreatNotFound = errors.New("threat not found")

// ThreatService persists detected threats and serves the admin read paths.
type ThreatService struct {
	db *gorm.DB
}

// NewThreatService returns a ThreatService using the provided DB.
func NewThreatService(db *gorm.DB) *ThreatService {
	return &ThreatService{db: db}
}

// Log stores a threat record and bumps the matched rule's blocked counter in
// a single atomic update. Runs on the fire-and-forget bookkeeping path, so
// callers treat a returned error as log-only.
func (s *ThreatService) Log(threat *models.Threat) error {
	if threat == nil {
		return nil
	}
	if threat.ID == "" {
		threat.ID = uuid.NewString()
	}
	if threat.Timestamp.IsZero() {
		threat.Timestamp = time.Now()
	}

	if err := s.db.Create(threat).Error; err != nil {
		return err
	}

	if err := s.db.Model(&models.Rule{}).Where("id = ?", threat.RuleID).UpdateColumns(map[string]interface{}{
		"blocked_count": gorm.Expr("blocked_count + 1"),
		"updated_at":    time.Now(),
	}).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"rule_id": threat.RuleID,
			"error":   err.Error(),
		}).Error("failed to update rule blocked count")
	}

	return nil
}

// List returns threats newest first with an optional severity filter, plus
// the total row count for pagination.
func (s *ThreatService) List(limit, offset int, severity string) ([]models.Threat, int64, error) {
	q := s.db.Model(&models.Threat{})
	if severity != "" {
		q = q.Where("severity = ?", severity)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var threats []models.Threat
	if err := q.Order("timestamp DESC").Limit(limit).Offset(offset).Find(&threats).Error; err != nil {
		return nil, 0, err
	}
	return threats, total, nil
}

// Get returns a single threat by id.
func (s *ThreatService) Get(id string) (*models.Threat, error) {
	var threat models.Threat
	if err := s.db.Where("id = ?", id).First(&threat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrThreatNotFound
		}
		return nil, err
	}
	return &threat, nil
}

// Recent returns the n newest threats for the dashboard.
func (s *ThreatService) Recent(n int) ([]models.Threat, error) {
	var threats []models.Threat
	if err := s.db.Order("timestamp DESC").Limit(n).Find(&threats).Error; err != nil {
		return nil, err
	}
	return threats, nil
}

// Clear deletes all threat records and returns how many were removed.
func (s *ThreatService) Clear() (int64, error) {
	res := s.db.Where("1 = 1").Delete(&models.Threat{})
	return res.RowsAffected, res.Error
}
