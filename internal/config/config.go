// Package config loads application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration.
type Config struct {
	ListenAddr     string
	MarketAPIKey   string
	MarketBaseURL  string
	Symbol         string
	Interval       string
	LogLevel       string
	RequestTimeout int // seconds

	InitialCapital  float64
	MaxPositionSize float64
	StopLossPct     float64
	TakeProfitPct   float64
	MaxDrawdownPct  float64

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

// Load initializes configuration from environment variables.
func Load() (*Config, error) {
	// Load environment variables from a .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		ListenAddr:     getEnvWithDefault("LISTEN_ADDR", ":8000"),
		MarketAPIKey:   os.Getenv("MARKET_API_KEY"),
		MarketBaseURL:  getEnvWithDefault("MARKET_BASE_URL", "https://api.twelvedata.com"),
		Symbol:         getEnvWithDefault("SYMBOL", "AAPL"),
		Interval:       getEnvWithDefault("INTERVAL", "1day"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		RequestTimeout: getEnvIntWithDefault("REQUEST_TIMEOUT", 30),

		InitialCapital:  getEnvFloatWithDefault("INITIAL_CAPITAL", 100000),
		MaxPositionSize: getEnvFloatWithDefault("MAX_POSITION_SIZE", 0.2),
		StopLossPct:     getEnvFloatWithDefault("STOP_LOSS_PCT", 0.05),
		TakeProfitPct:   getEnvFloatWithDefault("TAKE_PROFIT_PCT", 0.10),
		MaxDrawdownPct:  getEnvFloatWithDefault("MAX_DRAWDOWN_PCT", 0.20),

		DBHost:     getEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     getEnvWithDefault("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnvWithDefault("DB_NAME", "tradesim"),
		DBSSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}

	return cfg, nil
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

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
