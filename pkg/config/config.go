// Package config reads all environment configuration. Nothing else in the
// codebase calls os.Getenv.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Scoring policy file; empty means the built-in reference policy.
	PolicyPath string

	// Upstream feeds
	Feeds FeedConfig

	// Scan cycle
	Scan ScanConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FeedConfig holds upstream service endpoints.
type FeedConfig struct {
	ScorerBaseURL   string // external category scoring service
	HeadlineBaseURL string // headline page for the sentiment fallback scraper
	PriceBaseURL    string // REST quote endpoint
	PriceStreamURL  string // websocket push feed; empty disables streaming
	PollInterval    time.Duration
}

// ScanConfig holds scan cycle tuning.
type ScanConfig struct {
	Universe       []string // tickers to scan
	Workers        int
	ScorerTimeout  time.Duration
	ScoreWindow    time.Duration
	ActiveSchedule string // cron expression during market hours
	IdleSchedule   string // cron expression outside market hours
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		PolicyPath: getEnv("POLICY_PATH", ""),

		Feeds: FeedConfig{
			ScorerBaseURL:   getEnv("SCORER_BASE_URL", "http://localhost:9300"),
			HeadlineBaseURL: getEnv("HEADLINE_BASE_URL", "http://localhost:9301"),
			PriceBaseURL:    getEnv("PRICE_BASE_URL", "http://localhost:9302"),
			PriceStreamURL:  getEnv("PRICE_STREAM_URL", ""),
			PollInterval:    getEnvAsDuration("PRICE_POLL_INTERVAL", "30s"),
		},

		Scan: ScanConfig{
			Universe:       getEnvAsList("SCAN_UNIVERSE", nil),
			Workers:        getEnvAsInt("SCAN_WORKERS", 4),
			ScorerTimeout:  getEnvAsDuration("SCORER_TIMEOUT", "10s"),
			ScoreWindow:    getEnvAsDuration("SCORE_WINDOW", "24h"),
			ActiveSchedule: getEnv("SCAN_ACTIVE_SCHEDULE", "*/30 * 9-16 * * MON-FRI"),
			IdleSchedule:   getEnv("SCAN_IDLE_SCHEDULE", "0 */10 * * * *"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks required configuration values.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("SCAN_WORKERS must be > 0")
	}
	if c.Feeds.PollInterval <= 0 {
		return fmt.Errorf("PRICE_POLL_INTERVAL must be > 0")
	}
	return nil
}

// loadEnvFile tries to load .env from a few likely locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, strings.ToUpper(trimmed))
		}
	}
	return out
}
