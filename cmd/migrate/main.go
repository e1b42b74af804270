package main

import (
	"log"
	"os"

	"oraclebook/internal/config"
	"oraclebook/internal/database"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Schema migration
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Optional raw SQL migration file
	if len(os.Args) > 1 {
		sqlBytes, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to read migration file: %v", err)
		}

		log.Printf("Applying migration: %s", os.Args[1])
		if err := db.Exec(string(sqlBytes)).Error; err != nil {
			log.Fatalf("Failed to apply migration: %v", err)
		}
	}

	log.Println("Migrations applied successfully")
}
