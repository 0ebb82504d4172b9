package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv             string
	DBPath             string
	DBDriver           string
	RedisAddr          string
	HTTPPort           int
	CacheTTL           time.Duration
	MaxUploadBytes     int64
	RequestLogsEnabled bool
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	port, err := strconv.Atoi(getEnv("HTTP_PORT", "8080"))
	if err != nil {
		port = 8080
	}

	ttlMinutes, err := strconv.Atoi(getEnv("CACHE_TTL_MINUTES", "10"))
	if err != nil || ttlMinutes <= 0 {
		ttlMinutes = 10
	}

	uploadMB, err := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "32"))
	if err != nil || uploadMB <= 0 {
		uploadMB = 32
	}

	requestLogs, err := strconv.ParseBool(getEnv("REQUEST_LOGS_ENABLED", "true"))
	if err != nil {
		requestLogs = true
	}

	return &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		DBPath:             getEnv("DB_PATH", "./data/surveys.db"),
		DBDriver:           getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:           port,
		CacheTTL:           time.Duration(ttlMinutes) * time.Minute,
		MaxUploadBytes:     int64(uploadMB) << 20,
		RequestLogsEnabled: requestLogs,
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
