package models

import (
	"time"
)

// DailyStatistic aggregates traffic counters per calendar day.
// Invariant: TotalRequests == BlockedRequests + AllowedRequests.
type DailyStatistic struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Date            string    `json:"date" gorm:"uniqueIndex;not null"` // YYYY-MM-DD
	TotalRequests   int64     `json:"total_requests" gorm:"default:0"`
	BlockedRequests int64     `json:"blocked_requests" gorm:"default:0"`
	AllowedRequests int64     `json:"allowed_requests" gorm:"default:0"`
	UniqueIPs       int64     `json:"unique_ips" gorm:"default:0"`
	CreatedAt       time.Time `json:"created_at"`
}

func (DailyStatistic) TableName() string {
	return "statistics"
}

// DateKey formats t as a statistics day key using the process-local clock's
// timezone, the single canonical day boundary used across the system.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
