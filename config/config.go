package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tradeTracker/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Binance API (optional; spot price endpoints are public)
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Worker Parameters
	PollInterval time.Duration // Interval between lifecycle ticks
	PriceTimeout time.Duration // Per price-fetch timeout within a tick
	DefaultQuote string        // Quote currency used when a trade carries none

	// Broadcast
	WSListenAddr string // Address the /ws endpoint listens on

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// Binance API (no validation: empty keys are fine for public endpoints)
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	// Worker Parameters
	pollSeconds := getEnvAsInt("POLL_INTERVAL_SECONDS", 60)
	if pollSeconds <= 0 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be positive")
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	priceTimeoutSeconds := getEnvAsInt("PRICE_TIMEOUT_SECONDS", 10)
	if priceTimeoutSeconds <= 0 {
		errs = append(errs, "PRICE_TIMEOUT_SECONDS must be positive")
	}
	cfg.PriceTimeout = time.Duration(priceTimeoutSeconds) * time.Second

	cfg.DefaultQuote = strings.ToUpper(getEnv("DEFAULT_QUOTE", "USDT"))
	if cfg.DefaultQuote == "" {
		errs = append(errs, "DEFAULT_QUOTE must be set")
	}

	// Broadcast
	cfg.WSListenAddr = getEnv("WS_LISTEN_ADDR", ":8080")
	if cfg.WSListenAddr == "" {
		errs = append(errs, "WS_LISTEN_ADDR must be set")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/trade_tracker.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
