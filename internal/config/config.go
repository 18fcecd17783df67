package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey      string
	DatabaseURL       string
	HTTPPort          string
	AppEnv            string
	GatewayMaxRetries int
	EntryTokenBudget  int
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		DatabaseURL:       getEnv("DATABASE_URL", "mindful.db"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		AppEnv:            getEnv("APP_ENV", "development"),
		GatewayMaxRetries: getEnvAsInt("GATEWAY_MAX_RETRIES", 3),
		EntryTokenBudget:  getEnvAsInt("ENTRY_TOKEN_BUDGET", 2000),
	}

	// Missing credentials are fatal at startup, not per-request.
	if AppConfig.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
