package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/argus-sec/argus/backend/internal/models"
)

func setupRuleTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Rule{})
	require.NoError(t, err)

	return db
}

func TestRuleService_Create_Valid(t *testing.T) {
	db := setupRuleTestDB(t)
	svc := NewRuleService(db)

	rule := models.Rule{Name: "SQL Injection", Pattern: `UNION.*SELECT`, Severity: models.SeverityHigh, Enabled: true}
	require.NoError(t, svc.Create(&rule))
	assert.NotZero(t, rule.ID)

	got, err := svc.Get(rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "SQL Injection", got.Name)
	assert.True(t, got.Enabled)
}

func TestRuleService_Create_Validation(t *testing.T) {
	db := setupRuleTestDB(t)
	svc := NewRuleService(db)

	err := svc.Create(&models.Rule{Name: "", Pattern: "x", Severity: models.SeverityLow})
	assert.ErrorIs(t, err, ErrRuleInvalid)

	err = svc.Create(&models.Rule{Name: "Bad Severity", Pattern: "x", Severity: "extreme"})
	assert.ErrorIs(t, err, ErrInvalidSeverity)

	err = svc.Create(&models.Rule{Name: "Bad Pattern", Pattern: "([unclosed", Severity: models.SeverityLow})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestRuleService_Update(t *testing.T) {
	db := setupRuleTestDB(t)
	svc := NewRuleService(db)

	rule := models.Rule{Name: "Old", Pattern: "old", Severity: models.SeverityLow, Enabled: true}
	require.NoError(t, svc.Create(&rule))

	updated, err := svc.Update(rule.ID, "New", "desc", "new.*pattern", models.SeverityCritical)
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, models.SeverityCritical, updated.Severity)

	_, err = svc.Update(9999, "X", "", "x", models.SeverityLow)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRuleService_Toggle(t *testing.T) {
	db := setupRuleTestDB(t)
	svc := NewRuleService(db)

	rule := models.Rule{Name: "Toggle Me", Pattern: "x", Severity: models.SeverityLow, Enabled: true}
	require.NoError(t, svc.Create(&rule))

	got, err := svc.Toggle(rule.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	got, err = svc.Toggle(rule.ID)
	require.NoError(t, err)
	assert.True(t, got.Enabled)

	_, err = svc.Toggle(9999)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRuleService_Delete(t *testing.T) {
	db := setupRuleTestDB(t)
	svc := NewRuleService(db)

	rule := models.Rule{Name: "Doomed", Pattern: "x", Severity: models.SeverityLow}
	require.NoError(t, svc.Create(&rule))

	require.NoError(t, svc.Delete(rule.ID))
	_, err := svc.Get(rule.ID)
	assert.ErrorIs(t, err, ErrRuleNotFound)

	assert.ErrorIs(t, svc.Delete(rule.ID), ErrRuleNotFound)
}

func TestRuleService_TopByBlocked(t *testing.T) {
	db := setupRuleTestDB(t)
	svc := NewRuleService(db)

	quiet := models.Rule{Name: "Quiet", Pattern: "x", Severity: models.SeverityLow}
	require.NoError(t, svc.Create(&quiet))
	noisy := models.Rule{Name: "Noisy", Pattern: "y", Severity: models.SeverityHigh}
	require.NoError(t, svc.Create(&noisy))
	require.NoError(t, db.Model(&noisy).Update("blocked_count", 42).Error)

	top, err := svc.TopByBlocked(10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Noisy", top[0].Name)
}
