package main

import (
	"log"
	"os"

	"ai-masterbrain-be/internal/model"
	"ai-masterbrain-be/pkg/database"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, logger.Warn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Migrating Master Brain schema...")
	result, err := database.Migrate(db, model.BrainModels()...)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	for _, w := range result.Warnings {
		log.Printf("Warn: %s", w)
	}

	log.Printf("Success: %d tables migrated", result.Tables)
}
