package main

import (
	"log"
	"os"

	"leadflow-be/internal/model"
	"leadflow-be/pkg/database"

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
	db, err := database.NewGormDBFromDSN(dsn)
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
		&model.User{},
		&model.Plan{},
		&model.LeadPackage{},
		&model.Subscription{},
		&model.WebhookEvent{},
		&model.SupportTicket{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: constraints AutoMigrate cannot express
	log.Println("Step 3: Creating partial indexes...")
	postMigrationSQL := []string{
		// at most one active ledger row per user
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_subscriptions_user_active
		 ON subscriptions (user_id) WHERE status = 'active';`,

		// at most one open cancellation ticket per subscription
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_support_tickets_open_cancellation
		 ON support_tickets (subscription_id) WHERE status = 'OPEN' AND type = 'cancellation';`,

		`CREATE INDEX IF NOT EXISTS ix_webhook_events_unsettled
		 ON webhook_events (created_at) WHERE processed = false OR error_message <> '';`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed.")
}
