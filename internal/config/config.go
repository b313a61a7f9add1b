package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string
	DatabaseURL  string
	DatabasePath string

	SessionDuration  time.Duration
	RememberDuration time.Duration

	ResetTokenSecret string
	ResetTokenMaxAge time.Duration

	PageSize      int
	UploadMaxSize int64

	StaticFilesPath string
	TemplatesPath   string
	MigrationsPath  string

	AppBaseURL   string
	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	Debug bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:   getEnv("PORT", "8080"),
		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:  getEnv("DB_URL", ""),
		DatabasePath: getEnv("DB_PATH", "./codecourse.db"),

		SessionDuration:  getEnvDuration("SESSION_DURATION", 24*time.Hour),
		RememberDuration: getEnvDuration("REMEMBER_DURATION", 30*24*time.Hour),

		ResetTokenSecret: getEnv("RESET_TOKEN_SECRET", ""),
		ResetTokenMaxAge: getEnvDuration("RESET_TOKEN_MAX_AGE", time.Hour),

		PageSize:      getEnvInt("PAGE_SIZE", 6),
		UploadMaxSize: 5 * 1024 * 1024, // 5MB

		StaticFilesPath: getEnv("STATIC_PATH", "./static"),
		TemplatesPath:   getEnv("TEMPLATES_PATH", "./internal/templates"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),

		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),
		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "CodeCourse"),

		Debug: getEnv("DEBUG", "") != "",
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration reads a duration environment variable (e.g. "24h") or
// returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
