package models

import (
	"time"
)

// Threat statuses.
const (
	ThreatStatusBlocked = "blocked"
	ThreatStatusAllowed = "allowed"
	ThreatStatusFlagged = "flagged"
)

// Threat records a single detected rule match. Immutable after creation.
// RuleID keeps pointing at the originating rule even if the rule is later
// deleted, so history survives rule churn.
type Threat struct {
	ID            string    `json:"id" gorm:"primaryKey"` // UUID
	Timestamp     time.Time `json:"timestamp" gorm:"index;not null"`
	SourceIP      string    `json:"source_ip" gorm:"index;not null"`
	ThreatType    string    `json:"threat_type" gorm:"not null"` // matched rule name
	Severity      string    `json:"severity" gorm:"index;not null"`
	RequestMethod string    `json:"request_method"`
	RequestPath   string    `json:"request_path"`
	Payload       string    `json:"payload" gorm:"type:text"` // first 1000 chars of the serialized request
	UserAgent     string    `json:"user_agent"`
	Status        string    `json:"status" gorm:"default:blocked"` // blocked, allowed, flagged
	RuleID        uint      `json:"rule_id"`
	CreatedAt     time.Time `json:"created_at"`
}
