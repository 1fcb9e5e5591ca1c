package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Salon backend service the scheduling engine talks to.
	BackendBaseURL string

	// Session persistence. RedisAddr empty means the in-memory store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional Postgres archive for finished conversation transcripts.
	DatabaseURL string

	// Session lifecycle.
	SessionIdleTimeout time.Duration
	SweepInterval      time.Duration

	// Business hours bounding the alternative-slot search.
	BusinessOpen  string
	BusinessClose string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:3060"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 24*time.Hour),
		SweepInterval:      getEnvAsDuration("SESSION_SWEEP_INTERVAL", 15*time.Minute),

		BusinessOpen:  getEnv("BUSINESS_OPEN", "09:00"),
		BusinessClose: getEnv("BUSINESS_CLOSE", "19:00"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
