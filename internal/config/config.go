package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	// VibeBot completion service
	AIAPIKey string
	AIAPIURL string
	AIModel  string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/vibe.db"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		AIAPIKey:    os.Getenv("AI_API_KEY"),
		AIAPIURL:    getEnv("AI_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		AIModel:     getEnv("AI_MODEL", "deepseek-chat"),
	}

	// In production, require database and redis URLs
	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" {
			panic("DATABASE_URL is required in production")
		}
		if os.Getenv("REDIS_URL") == "" {
			panic("REDIS_URL is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
