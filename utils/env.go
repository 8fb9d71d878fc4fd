package utils

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("ℹ️  No .env file found, continuing...")
	}
}

// DatabaseURL returns DATABASE_URL from the environment, empty when unset.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}
