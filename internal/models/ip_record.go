package models

import (
	"time"
)

// IP reputation statuses. Status only ever escalates; there is no decay.
const (
	IPStatusNormal     = "normal"
	IPStatusSuspicious = "suspicious"
	IPStatusBlocked    = "blocked"
)

// IPRecord tracks per-source-address activity and derived reputation.
type IPRecord struct {
	IPAddress    string    `json:"ip_address" gorm:"primaryKey"`
	RequestCount int64     `json:"request_count" gorm:"default:0"`
	ThreatCount  int64     `json:"threat_count" gorm:"default:0"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	Status       string    `json:"status" gorm:"default:normal"` // normal, suspicious, blocked
}

func (IPRecord) TableName() string {
	return "ip_tracking"
}
