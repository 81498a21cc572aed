package models

import (
	"time"
)

// Severity levels shared by rules and threats.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ValidSeverity reports whether s is one of the known severity levels.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rule is a named detection pattern evaluated against incoming requests.
// Pattern holds the source regular expression; compilation happens in the
// engine so a broken pattern never blocks persistence of the others.
type Rule struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"uniqueIndex;not null"`
	Description  string    `json:"description" gorm:"type:text"`
	Pattern      string    `json:"pattern" gorm:"type:text;not null"`
	Severity     string    `json:"severity" gorm:"index;not null"` // low, medium, high, critical
	Enabled      bool      `json:"enabled" gorm:"default:true"`
	BlockedCount int64     `json:"blocked_count" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
