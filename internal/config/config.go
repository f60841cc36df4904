package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	CompletionAPIKey  string
	CompletionBaseURL string
	CompletionModel   string
	DatabaseURL       string
	HTTPPort          string
	LogLevel          string
	JWTSecret         string
	AdminPassword     string
	AdminPasswordHash string

	// Deployment-level overrides for the stored configuration. When both
	// prompts are set they take precedence over whatever the admin saved.
	SystemPromptA     string
	SystemPromptB     string
	LoggingEnabled    bool
	TimestampsEnabled bool
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		CompletionAPIKey:  getEnv("COMPLETION_API_KEY", ""),
		CompletionBaseURL: getEnv("COMPLETION_BASE_URL", ""),
		CompletionModel:   getEnv("COMPLETION_MODEL", ""),
		DatabaseURL:       getEnv("DATABASE_URL", "chatpanel.db"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		SystemPromptA:     getEnv("SYSTEM_PROMPT_A", ""),
		SystemPromptB:     getEnv("SYSTEM_PROMPT_B", ""),
		LoggingEnabled:    getEnvAsBool("LOGGING_ENABLED", true),
		TimestampsEnabled: getEnvAsBool("TIMESTAMPS_ENABLED", true),
	}

	if AppConfig.CompletionAPIKey == "" {
		log.Fatal("COMPLETION_API_KEY environment variable is required")
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	if AppConfig.AdminPassword == "" && AppConfig.AdminPasswordHash == "" {
		log.Fatal("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
