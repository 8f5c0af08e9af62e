package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/jansetu/backend/internal/database"
	"github.com/jansetu/backend/internal/models"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// UserData represents the structure of users in the JSON file
type UserData struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Role        string `json:"role"`
	OfficerCode string `json:"officerCode"`
	Department  string `json:"department"`
	Region      string `json:"region"`
}

// JSONData represents the structure of the JSON files
type JSONData struct {
	Users []UserData `json:"users"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	database.Connect()
	database.AutoMigrate()

	if err := seedUsers(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Database seeding completed successfully")
}

func seedUsers() error {
	path := os.Getenv("SEED_USERS_FILE")
	if path == "" {
		path = "data/initial-users.json"
	}
	usersData, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jsonData JSONData
	if err := json.Unmarshal(usersData, &jsonData); err != nil {
		return err
	}

	for _, userData := range jsonData.Users {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(userData.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Error hashing password for %s: %v", userData.Email, err)
			continue
		}

		role := models.UserRole(userData.Role)
		switch role {
		case models.RoleCitizen, models.RoleExecutive, models.RoleMasterAdmin:
		default:
			log.Printf("Unknown role %s for user %s, defaulting to citizen", userData.Role, userData.Email)
			role = models.RoleCitizen
		}

		user := models.User{
			Email:     userData.Email,
			Password:  string(hashedPassword),
			FirstName: userData.FirstName,
			LastName:  userData.LastName,
			Role:      role,
		}
		if userData.OfficerCode != "" {
			user.OfficerCode = &userData.OfficerCode
		}
		if userData.Department != "" {
			user.Department = &userData.Department
		}
		if userData.Region != "" {
			user.Region = &userData.Region
		}

		var existingUser models.User
		if err := database.DB.Where("email = ?", user.Email).First(&existingUser).Error; err != nil {
			if err := database.DB.Create(&user).Error; err != nil {
				log.Printf("Error creating user %s: %v", user.Email, err)
			} else {
				log.Printf("Created user: %s (%s)", user.Email, user.Role)
			}
		} else {
			log.Printf("User already exists: %s", user.Email)
		}
	}

	return nil
}
