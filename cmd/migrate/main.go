package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/jansetu/backend/internal/database"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Indexes gorm's AutoMigrate does not express: the dashboard and workload
// queries filter on these combinations constantly.
var rawIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_cases_type_status ON cases (case_type, status)`,
	`CREATE INDEX IF NOT EXISTS idx_cases_open_by_officer ON cases (assigned_to) WHERE status NOT IN ('CLOSED','COMPLETED','REJECTED','CANCELLED')`,
	`CREATE INDEX IF NOT EXISTS idx_case_events_case_created ON case_events (case_id, created_at)`,
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	database.Connect()

	log.Println("Running database migrations...")
	database.AutoMigrate()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required for index setup")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("Failed to open database for index setup:", err)
	}
	defer db.Close()

	for _, stmt := range rawIndexes {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Index setup failed: %v\nstatement: %s", err, stmt)
		}
	}

	log.Println("Database migrations completed successfully")
}
