package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	ListenAddr     string  `env:"LISTEN_ADDR" envDefault:":8080"`
	ModelPath      string  `env:"MODEL_PATH" envDefault:"model.tar.gz"`
	LogLevel       string  `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout int     `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RequestsPerSec int     `env:"REQUESTS_PER_SEC" envDefault:"5"`
	DBHost         string  `env:"DB_HOST" envDefault:""`
	DBPort         string  `env:"DB_PORT" envDefault:"5432"`
	DBUser         string  `env:"DB_USER" envDefault:"postgres"`
	DBPassword     string  `env:"DB_PASSWORD" envDefault:""`
	DBName         string  `env:"DB_NAME" envDefault:"calltime"`
	DBSSLMode      string  `env:"DB_SSLMODE" envDefault:"disable"`
	TelegramToken  string  `env:"TELEGRAM_BOT_TOKEN" envDefault:""`
	TelegramChatID int64   `env:"TELEGRAM_CHAT_ID" envDefault:"0"`
	NotifyWindow   int     `env:"NOTIFY_WINDOW_HOURS" envDefault:"24"`
	MinConfidence  float64 `env:"MIN_CONFIDENCE" envDefault:"0.0"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.ListenAddr = getEnvWithDefault("LISTEN_ADDR", ":8080")
	cfg.ModelPath = getEnvWithDefault("MODEL_PATH", "model.tar.gz")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "calltime")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)
	cfg.NotifyWindow = getEnvIntWithDefault("NOTIFY_WINDOW_HOURS", 24)
	cfg.MinConfidence = getEnvFloatWithDefault("MIN_CONFIDENCE", 0.0)

	return &cfg, nil
}

// AuditEnabled reports whether the optional Postgres audit store is
// configured. The serving pipeline itself never requires a database.
func (c *Config) AuditEnabled() bool {
	return c.DBHost != ""
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
