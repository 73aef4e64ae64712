package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Loyalty  LoyaltyConfig
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// LoyaltyConfig controls settlement behavior shared by the commit and refund
// paths.
type LoyaltyConfig struct {
	// LedgerEnabled turns on the double-entry ledger mirror for every wallet
	// mutation the settlement engine performs.
	LedgerEnabled bool
}

func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "loyka:loyka@tcp(localhost:3306)/loyka?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: time.Hour,
		},
		Loyalty: LoyaltyConfig{
			LedgerEnabled: getEnvBool("LOYALTY_LEDGER_ENABLED", true),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
