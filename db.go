package main

import (
	"log"
	"os"

	"cmsbe/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	db, err = gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Migrate models individually so a failure on one doesn't block others
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Printf("migration warning (users): %v", err)
	}
	if err := db.AutoMigrate(&models.Article{}); err != nil {
		log.Printf("migration warning (articles): %v", err)
	}
	if err := db.AutoMigrate(&models.File{}); err != nil {
		log.Printf("migration warning (files): %v", err)
	}
	ensureUploadBase()
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", cfg.UploadDir, err)
	}
}
