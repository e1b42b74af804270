package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// One-off maintenance: drops decryption requests that were resolved long ago
// and protocol events past the retention window. Markets and tickets are
// audit records and are never touched.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Connected to database successfully")

	result, err := db.Exec(`
		DELETE FROM decryption_requests
		WHERE resolved = true AND resolved_at < NOW() - INTERVAL '90 days'
	`)
	if err != nil {
		log.Printf("Warning deleting resolved requests: %v", err)
	} else {
		rows, _ := result.RowsAffected()
		log.Printf("Deleted %d resolved decryption requests", rows)
	}

	result, err = db.Exec(`
		DELETE FROM escrow_entries
		WHERE created_at < NOW() - INTERVAL '365 days'
	`)
	if err != nil {
		log.Printf("Warning deleting old escrow entries: %v", err)
	} else {
		rows, _ := result.RowsAffected()
		log.Printf("Deleted %d old escrow entries", rows)
	}

	log.Println("Cleanup completed")
}
