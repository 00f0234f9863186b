package main

import (
	"log"

	"provider-marketplace-be/internal/config"
	"provider-marketplace-be/internal/model"
	"provider-marketplace-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	// 4. AutoMigrate
	log.Println("Step 2: Running AutoMigrate...")
	models := []interface{}{
		&model.User{},
		&model.SubscriptionPayment{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: status guards and the public directory view
	log.Println("Step 3: Creating Constraints and Views...")

	postMigrationSQL := []string{
		`DO $$ BEGIN
		   ALTER TABLE users ADD CONSTRAINT chk_users_role CHECK (role IN ('user', 'service_provider', 'admin'));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
		   ALTER TABLE users ADD CONSTRAINT chk_users_verification_status CHECK (verification_status IN ('pending', 'approved', 'rejected'));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
		   ALTER TABLE users ADD CONSTRAINT chk_users_subscription_status CHECK (subscription_status IN ('PENDING_APPROVAL', 'APPROVED_BUT_UNSUBSCRIBED', 'ACTIVE', 'EXPIRED'));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
		   ALTER TABLE users ADD CONSTRAINT chk_users_active_is_approved CHECK (subscription_status <> 'ACTIVE' OR (is_verified AND verification_status = 'approved' AND subscription_end_date IS NOT NULL));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
		   ALTER TABLE subscription_payments ADD CONSTRAINT chk_subscription_payments_status CHECK (payment_status IN ('pending', 'paid', 'failed', 'refunded'));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

		// View: listable_providers (end date is compared at query time)
		`CREATE OR REPLACE VIEW listable_providers AS
		 SELECT id, full_name, subscription_end_date
		 FROM users
		 WHERE role = 'service_provider'
		   AND is_blocked = false
		   AND verification_status = 'approved'
		   AND is_verified = true
		   AND subscription_status = 'ACTIVE'
		   AND subscription_end_date > now();`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
