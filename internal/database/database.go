package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/argus-sec/argus/backend/internal/logger"
	"github.com/argus-sec/argus/backend/internal/models"
)

// Open bootstraps a SQLite database using the provided filesystem path.
func Open(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the detection pipeline schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Rule{},
		&models.Threat{},
		&models.IPRecord{},
		&models.DailyStatistic{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}

// DefaultRules returns the stock detection rule set shipped with the server.
func DefaultRules() []models.Rule {
	return []models.Rule{
		{
			Name:        "SQL Injection",
			Description: "Detects SQL injection attempts including UNION, OR statements, and DROP commands",
			Pattern:     `(\bOR\b.*=.*|UNION.*SELECT|DROP.*TABLE|INSERT.*INTO|DELETE.*FROM|UPDATE.*SET|EXEC\(|EXECUTE\()`,
			Severity:    models.SeverityHigh,
			Enabled:     true,
		},
		{
			Name:        "XSS Attack",
			Description: "Detects cross-site scripting attempts with script tags and event handlers",
			Pattern:     `(<script.*?>.*?</script>|javascript:|onerror=|onload=|onclick=|<iframe|eval\()`,
			Severity:    models.SeverityHigh,
			Enabled:     true,
		},
		{
			Name:        "Path Traversal",
			Description: "Detects directory traversal attempts using ../ patterns",
			Pattern:     `(\.\.\/|\.\.\\.)`,
			Severity:    models.SeverityMedium,
			Enabled:     true,
		},
		{
			Name:        "Command Injection",
			Description: "Detects attempts to inject shell commands",
			Pattern:     "([;&|`$(){}\\[\\]]|\\b(cat|ls|wget|curl|nc|bash|sh)\\b)",
			Severity:    models.SeverityHigh,
			Enabled:     true,
		},
		{
			Name:        "LDAP Injection",
			Description: "Detects LDAP injection attempts",
			Pattern:     `(\(\||\(\&|\*\)|\(\!)`,
			Severity:    models.SeverityMedium,
			Enabled:     true,
		},
		{
			Name:        "XML Injection",
			Description: "Detects XML/XXE injection attempts",
			Pattern:     `(<!ENTITY|<!DOCTYPE|SYSTEM|PUBLIC)`,
			Severity:    models.SeverityHigh,
			Enabled:     true,
		},
		{
			Name:        "NoSQL Injection",
			Description: "Detects NoSQL injection patterns",
			Pattern:     `(\$ne|\$gt|\$lt|\$or|\$and|\$where)`,
			Severity:    models.SeverityMedium,
			Enabled:     true,
		},
		{
			Name:        "File Upload Attack",
			Description: "Detects suspicious file extensions",
			Pattern:     `\.(exe|bat|sh|php|asp|aspx|jsp|py)$`,
			Severity:    models.SeverityHigh,
			Enabled:     true,
		},
	}
}

// SeedDefaultRules inserts the stock rules, ignoring ones whose name already
// exists so operator edits survive restarts.
func SeedDefaultRules(db *gorm.DB) error {
	rules := DefaultRules()
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&rules).Error; err != nil {
		return fmt.Errorf("seed default rules: %w", err)
	}

	logger.WithFields(map[string]interface{}{"rules": len(rules)}).Debug("default detection rules seeded")
	return nil
}
