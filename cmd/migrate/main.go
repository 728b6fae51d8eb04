package main

import (
	"log"
	"os"

	"sponsor-advisor-be/internal/model"
	"sponsor-advisor-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		// Catalog
		&model.BusinessProfile{},
		&model.TeamProfile{},
		&model.SponsorshipOffer{},
		&model.SponsorshipPackage{},
		// Conversations
		&model.Conversation{},
		&model.ConversationMessage{},
		&model.Recommendation{},
		// Analytics
		&model.RecommendationStat{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Views
	log.Println("Step 3: Creating Views...")

	postMigrationSQL := []string{
		// View: active package listings, the catalog the matcher reads
		`CREATE OR REPLACE VIEW active_package_listings AS
		 SELECT t.id AS team_profile_id, t.name AS team_name, t.sport, t.latitude, t.longitude, t.total_reach,
		        o.id AS sponsorship_offer_id, o.marketplace_url, p.id AS package_id, p.name AS package_name, p.price
		 FROM sponsorship_packages p
		 JOIN sponsorship_offers o ON o.id = p.offer_id
		 JOIN team_profiles t ON t.id = o.team_profile_id
		 WHERE p.is_active AND o.is_active;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
