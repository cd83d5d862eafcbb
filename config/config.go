package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port          string
	DBFile        string
	SessionSecret string
	TokenSecret   string
	AdminEmail    string
	LogLevel      string
}

var App Config

func Init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	App = Config{
		Port:          getEnv("PORT", "8080"),
		DBFile:        getEnv("sqlite_db", "selah.db"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		TokenSecret:   getEnv("TOKEN_SECRET", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", "flawlesslee.rrl@gmail.com"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
