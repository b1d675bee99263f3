package main

import (
	"log"
	"os"

	"takahub-be/internal/model"
	"takahub-be/pkg/database"

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

	// 2. Connect to Database
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Running AutoMigrate...")

	models := []interface{}{
		&model.User{},
		&model.Agency{},
		&model.SubscriptionPlan{},
		&model.UserSubscription{},
		&model.PaymentTransaction{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: the partial unique index GORM tags cannot express.
	// At most one pending/processing transaction may exist per subscription;
	// concurrent initiations lose the insert race here and reuse the winner.
	log.Println("Ensuring open-transaction uniqueness index...")

	indexSQL := `CREATE UNIQUE INDEX IF NOT EXISTS uniq_payment_transactions_open
		ON payment_transactions (subscription_id)
		WHERE status IN ('pending', 'processing');`
	if err := db.Exec(indexSQL).Error; err != nil {
		log.Fatalf("Error: Failed to create uniq_payment_transactions_open: %v", err)
	}

	log.Println("Migration complete.")
}
