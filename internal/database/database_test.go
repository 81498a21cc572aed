package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-sec/argus/backend/internal/models"
)

func TestOpen(t *testing.T) {
	db, err := Open("file::memory:?cache=shared")
	assert.NoError(t, err)
	assert.NotNil(t, db)

	tempDir := t.TempDir()
	db, err = Open(filepath.Join(tempDir, "test.db"))
	assert.NoError(t, err)
	assert.NotNil(t, db)
}

func TestSeedDefaultRulesIdempotent(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, SeedDefaultRules(db))

	var count int64
	require.NoError(t, db.Model(&models.Rule{}).Count(&count).Error)
	assert.Equal(t, int64(8), count)

	// Operator edits must survive a reseed.
	require.NoError(t, db.Model(&models.Rule{}).Where("name = ?", "SQL Injection").Update("enabled", false).Error)
	require.NoError(t, SeedDefaultRules(db))

	require.NoError(t, db.Model(&models.Rule{}).Count(&count).Error)
	assert.Equal(t, int64(8), count)

	var rule models.Rule
	require.NoError(t, db.Where("name = ?", "SQL Injection").First(&rule).Error)
	assert.False(t, rule.Enabled)
}

func TestDefaultRulesCompile(t *testing.T) {
	for _, rule := range DefaultRules() {
		assert.True(t, models.ValidSeverity(rule.Severity), rule.Name)
		assert.NotEmpty(t, rule.Pattern, rule.Name)
	}
}
