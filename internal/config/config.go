package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment-derived settings for the LinkUp backend
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string

	DatabaseURL string

	JWTSecret string
	TokenTTL  time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string

	AWSRegion     string
	ImageBucket   string
	CDNBaseURL    string
	EmailFrom     string
	EmailName     string
	FrontendURL   string
	ModerationURL string
}

// Load reads the .env file (if present) and assembles the configuration.
// Missing optional values fall back to development defaults; JWT_SECRET is
// the only hard requirement.
func Load() (*Config, error) {
	// Ignore a missing .env file: production uses real environment variables
	_ = godotenv.Load()

	cfg := &Config{
		Port:          GetEnvOrDefault("PORT", "8080"),
		Environment:   GetEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:      GetEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:       GetEnvOrDefault("LOG_FILE", "linkup.log"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      24 * time.Hour,
		RedisHost:     GetEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     GetEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		AWSRegion:     GetEnvOrDefault("AWS_REGION", "us-east-1"),
		ImageBucket:   os.Getenv("AWS_BUCKET"),
		CDNBaseURL:    GetEnvOrDefault("CDN_BASE_URL", "https://cdn.linkup.app"),
		EmailFrom:     GetEnvOrDefault("EMAIL_FROM", "no-reply@linkup.app"),
		EmailName:     GetEnvOrDefault("EMAIL_FROM_NAME", "LinkUp"),
		FrontendURL:   GetEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		ModerationURL: GetEnvOrDefault("MODERATION_API_URL", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
