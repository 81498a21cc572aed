package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/argus-sec/argus/backend/internal/models"
)

// TrackingService maintains per-IP reputation and per-day traffic counters.
// Both paths are single-statement upserts so concurrent requests never lose
// increments.
type TrackingService struct {
	db *gorm.DB
}

// NewTrackingService returns a TrackingService using the provided DB.
func NewTrackingService(db *gorm.DB) *TrackingService {
	return &TrackingService{db: db}
}

// TrackIP upserts the record for ip: request_count always increments,
// threat_count increments when isThreat, and status escalates from the
// post-increment threat count (>10 blocked, >5 suspicious). Status never
// regresses; there is no decay.
func (s *TrackingService) TrackIP(ip string, isThreat bool) error {
	delta := 0
	if isThreat {
		delta = 1
	}

	now := time.Now()
	rec := models.IPRecord{
		IPAddress:    ip,
		RequestCount: 1,
		ThreatCount:  int64(delta),
		FirstSeen:    now,
		LastSeen:     now,
		Status:       models.IPStatusNormal,
	}

	// Unqualified columns inside DO UPDATE refer to the existing row, so
	// threat_count + delta is the post-increment value.
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ip_address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + 1"),
			"threat_count":  gorm.Expr("threat_count + ?", delta),
			"last_seen":     now,
			"status": gorm.Expr(
				"CASE WHEN threat_count + ? > 10 THEN 'blocked' WHEN threat_count + ? > 5 THEN 'suspicious' ELSE status END",
				delta, delta,
			),
		}),
	}).Create(&rec).Error
}

// RecordRequest upserts today's statistics row, incrementing total_requests
// and exactly one of blocked_requests/allowed_requests.
func (s *TrackingService) RecordRequest(blocked bool) error {
	b, a := 0, 1
	if blocked {
		b, a = 1, 0
	}

	row := models.DailyStatistic{
		Date:            models.DateKey(time.Now()),
		TotalRequests:   1,
		BlockedRequests: int64(b),
		AllowedRequests: int64(a),
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_requests":   gorm.Expr("total_requests + 1"),
			"blocked_requests": gorm.Expr("blocked_requests + ?", b),
			"allowed_requests": gorm.Expr("allowed_requests + ?", a),
		}),
	}).Create(&row).Error
}

// ListIPs returns tracked addresses, optionally filtered by status, worst
// offenders first.
func (s *TrackingService) ListIPs(status string) ([]models.IPRecord, error) {
	q := s.db.Order("threat_count DESC, last_seen DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var records []models.IPRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// GetIP returns the record for a single address, or nil when unseen.
func (s *TrackingService) GetIP(ip string) (*models.IPRecord, error) {
	var rec models.IPRecord
	err := s.db.Where("ip_address = ?", ip).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Totals sums request counters over the trailing window of days.
type Totals struct {
	TotalRequests   int64 `json:"total_requests"`
	BlockedRequests int64 `json:"blocked_requests"`
	AllowedRequests int64 `json:"allowed_requests"`
}

// TotalsSince returns summed counters for the last `days` calendar days.
func (s *TrackingService) TotalsSince(days int) (*Totals, error) {
	since := models.DateKey(time.Now().AddDate(0, 0, -days))

	var totals Totals
	err := s.db.Model(&models.DailyStatistic{}).
		Select("COALESCE(SUM(total_requests),0) AS total_requests, COALESCE(SUM(blocked_requests),0) AS blocked_requests, COALESCE(SUM(allowed_requests),0) AS allowed_requests").
		Where("date >= ?", since).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// DailySince returns per-day rows for the last `days` calendar days, newest first.
func (s *TrackingService) DailySince(days int) ([]models.DailyStatistic, error) {
	since := models.DateKey(time.Now().AddDate(0, 0, -days))

	var daily []models.DailyStatistic
	if err := s.db.Where("date >= ?", since).Order("date DESC").Find(&daily).Error; err != nil {
		return nil, err
	}
	return daily, nil
}

// Today returns the current day's row, or an empty row when no traffic has
// been recorded yet.
func (s *TrackingService) Today() (*models.DailyStatistic, error) {
	today := models.DateKey(time.Now())

	var row models.DailyStatistic
	err := s.db.Where("date = ?", today).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.DailyStatistic{Date: today}, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UniqueIPCount counts distinct tracked addresses.
func (s *TrackingService) UniqueIPCount() (int64, error) {
	var count int64
	if err := s.db.Model(&models.IPRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
