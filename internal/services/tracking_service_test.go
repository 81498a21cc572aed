package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/argus-sec/argus/backend/internal/models"
)

func setupTrackingTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.IPRecord{}, &models.DailyStatistic{})
	require.NoError(t, err)

	return db
}

func TestTrackingService_TrackIP_InsertAndIncrement(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	require.NoError(t, svc.TrackIP("192.168.1.10", false))

	rec, err := svc.GetIP("192.168.1.10")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(1), rec.RequestCount)
	assert.Equal(t, int64(0), rec.ThreatCount)
	assert.Equal(t, models.IPStatusNormal, rec.Status)
	assert.False(t, rec.FirstSeen.IsZero())

	require.NoError(t, svc.TrackIP("192.168.1.10", true))

	rec, err = svc.GetIP("192.168.1.10")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.RequestCount)
	assert.Equal(t, int64(1), rec.ThreatCount)
	assert.Equal(t, models.IPStatusNormal, rec.Status)
}

func TestTrackingService_TrackIP_SuspiciousThreshold(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	// threat_count must exceed 5 to become suspicious
	for i := 0; i < 6; i++ {
		require.NoError(t, svc.TrackIP("10.0.0.9", true))
	}

	rec, err := svc.GetIP("10.0.0.9")
	require.NoError(t, err)
	assert.Equal(t, int64(6), rec.ThreatCount)
	assert.Equal(t, models.IPStatusSuspicious, rec.Status)
}

func TestTrackingService_TrackIP_BlockedAfterElevenThreats(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	for i := 0; i < 11; i++ {
		require.NoError(t, svc.TrackIP("10.0.0.5", true))
	}

	rec, err := svc.GetIP("10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, int64(11), rec.ThreatCount)
	assert.Equal(t, models.IPStatusBlocked, rec.Status)
}

func TestTrackingService_TrackIP_StatusNeverRegresses(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	for i := 0; i < 11; i++ {
		require.NoError(t, svc.TrackIP("10.0.0.5", true))
	}

	// A long run of benign requests must not demote the address.
	for i := 0; i < 50; i++ {
		require.NoError(t, svc.TrackIP("10.0.0.5", false))
	}

	rec, err := svc.GetIP("10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, models.IPStatusBlocked, rec.Status)
	assert.Equal(t, int64(61), rec.RequestCount)
}

func TestTrackingService_TrackIP_ConcurrentIncrements(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	const workers = 20
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.TrackIP("10.8.8.8", true)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// No increment may be lost to a concurrent writer.
	rec, err := svc.GetIP("10.8.8.8")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(workers), rec.RequestCount)
	assert.Equal(t, int64(workers), rec.ThreatCount)
	assert.Equal(t, models.IPStatusBlocked, rec.Status)
}

func TestTrackingService_RecordRequest_ConcurrentCounters(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	const workers = 20
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(blocked bool) {
			defer wg.Done()
			errs <- svc.RecordRequest(blocked)
		}(i%2 == 0)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	row, err := svc.Today()
	require.NoError(t, err)
	assert.Equal(t, int64(workers), row.TotalRequests)
	assert.Equal(t, int64(workers/2), row.BlockedRequests)
	assert.Equal(t, int64(workers/2), row.AllowedRequests)
	assert.Equal(t, row.TotalRequests, row.BlockedRequests+row.AllowedRequests)
}

func TestTrackingService_GetIP_Unseen(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	rec, err := svc.GetIP("203.0.113.1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTrackingService_ListIPs_FilterAndOrder(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	require.NoError(t, svc.TrackIP("10.0.0.1", false))
	for i := 0; i < 7; i++ {
		require.NoError(t, svc.TrackIP("10.0.0.2", true))
	}

	all, err := svc.ListIPs("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "10.0.0.2", all[0].IPAddress) // worst offender first

	suspicious, err := svc.ListIPs(models.IPStatusSuspicious)
	require.NoError(t, err)
	require.Len(t, suspicious, 1)
	assert.Equal(t, "10.0.0.2", suspicious[0].IPAddress)
}

func TestTrackingService_RecordRequest_CounterConservation(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	for i := 0; i < 20; i++ {
		require.NoError(t, svc.RecordRequest(i%3 == 0))
	}

	row, err := svc.Today()
	require.NoError(t, err)
	assert.Equal(t, int64(20), row.TotalRequests)
	assert.Equal(t, int64(7), row.BlockedRequests)
	assert.Equal(t, int64(13), row.AllowedRequests)
	assert.Equal(t, row.TotalRequests, row.BlockedRequests+row.AllowedRequests)
}

func TestTrackingService_TotalsSince_SumsWindow(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	// A row outside the window must not count.
	old := models.DailyStatistic{
		Date:            models.DateKey(time.Now().AddDate(0, 0, -40)),
		TotalRequests:   100,
		BlockedRequests: 60,
		AllowedRequests: 40,
	}
	require.NoError(t, db.Create(&old).Error)

	require.NoError(t, svc.RecordRequest(true))
	require.NoError(t, svc.RecordRequest(false))

	totals, err := svc.TotalsSince(30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals.TotalRequests)
	assert.Equal(t, int64(1), totals.BlockedRequests)
	assert.Equal(t, int64(1), totals.AllowedRequests)

	wide, err := svc.TotalsSince(60)
	require.NoError(t, err)
	assert.Equal(t, int64(102), wide.TotalRequests)
}

func TestTrackingService_Today_EmptyWhenNoTraffic(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	row, err := svc.Today()
	require.NoError(t, err)
	assert.Equal(t, int64(0), row.TotalRequests)
	assert.Equal(t, models.DateKey(time.Now()), row.Date)
}

func TestTrackingService_UniqueIPCount(t *testing.T) {
	db := setupTrackingTestDB(t)
	svc := NewTrackingService(db)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.TrackIP(fmt.Sprintf("10.0.0.%d", i), false))
	}
	require.NoError(t, svc.TrackIP("10.0.0.0", false))

	count, err := svc.UniqueIPCount()
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}
