package database

import (
	"fmt"
	"log"
	"os"

	"github.com/jansetu/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect initializes the database connection. DATABASE_URL wins when set;
// otherwise the DSN is assembled from the individual DB_* variables.
func Connect() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			os.Getenv("DB_HOST"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_SSLMODE"),
		)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Println("Database connected successfully")
}

// AutoMigrate runs database migrations for all models.
func AutoMigrate() {
	if err := DB.AutoMigrate(&models.User{}); err != nil {
		log.Printf("User migration failed: %v", err)
		return
	}
	if err := DB.AutoMigrate(&models.Case{}); err != nil {
		log.Printf("Case migration failed: %v", err)
		return
	}
	if err := DB.AutoMigrate(&models.CaseEvent{}); err != nil {
		log.Printf("CaseEvent migration failed: %v", err)
		return
	}
	if err := DB.AutoMigrate(&models.CaseSequence{}); err != nil {
		log.Printf("CaseSequence migration failed: %v", err)
		return
	}
	log.Println("All database migrations completed successfully")
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	return DB
}
