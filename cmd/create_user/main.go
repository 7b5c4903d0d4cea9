package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"cmsbe/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Creates a user directly against the DB, bypassing the HTTP API. The same
// hashing path as the register endpoint: bcrypt with BCRYPT_ROUNDS.
func main() {
	if len(os.Args) < 6 {
		fmt.Println("usage: go run ./cmd/create_user <username> <passphrase> <first_name> <last_name> <email>")
		os.Exit(2)
	}
	username, passphrase := os.Args[1], os.Args[2]
	firstName, lastName, email := os.Args[3], os.Args[4], strings.ToLower(os.Args[5])

	if len(passphrase) < 10 {
		log.Fatal("passphrase must be at least 10 characters")
	}

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	rounds := 12
	if v := os.Getenv("BCRYPT_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rounds = n
		}
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(passphrase), rounds)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{
		Username:   username,
		Passphrase: hashed,
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d\n", username, user.ID)
}
