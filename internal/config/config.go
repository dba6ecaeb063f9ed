package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the backend server.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string // postgres://...; wins over SQLitePath
	SQLitePath  string // used when DatabaseURL is empty; "" means in-memory
	RedisURL    string // token store; in-memory when empty

	TokenTTL      time.Duration
	Seed          bool
	AdminPassword string

	// Rate limiting
	LoginPerMinute     int
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it returns an error on missing required variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    os.Getenv("SQLITE_PATH"),
		RedisURL:      os.Getenv("REDIS_URL"),
		Seed:          getEnv("SEED", "true") == "true",
		AdminPassword: getEnv("ADMIN_PASSWORD", "omnidesk"),
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("config: TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	perMin, err := strconv.Atoi(getEnv("LOGIN_RATE_PER_MIN", "10"))
	if err != nil {
		return nil, fmt.Errorf("config: LOGIN_RATE_PER_MIN: %w", err)
	}
	cfg.LoginPerMinute = perMin

	cfg.RateLimitWhitelist = splitList(os.Getenv("RATE_LIMIT_WHITELIST"))

	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
			return nil, fmt.Errorf("config: DATABASE_URL or SQLITE_PATH is required in production")
		}
		if cfg.Seed && os.Getenv("ADMIN_PASSWORD") == "" {
			return nil, fmt.Errorf("config: ADMIN_PASSWORD is required to seed in production")
		}
	}

	return cfg, nil
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

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
