package main

import (
	"fmt"
	"log"

	"github.com/argus-sec/argus/backend/internal/config"
	"github.com/argus-sec/argus/backend/internal/database"
)

// Seeds the database with the stock detection rules. Safe to run repeatedly;
// rules whose name already exists are left untouched.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}

	fmt.Println("✓ Database migrated successfully")

	if err := database.SeedDefaultRules(db); err != nil {
		log.Fatal("Failed to seed rules: ", err)
	}

	fmt.Printf("✓ Seeded %d default detection rules\n", len(database.DefaultRules()))
}
