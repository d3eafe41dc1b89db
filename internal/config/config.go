// Package config provides configuration management for the fraud signal engine.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Sources       SourcesConfig
	Snapshot      SnapshotConfig
	ReportHistory ReportHistoryConfig
	RateLimit     RateLimitConfig
	Logging       LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// URL returns the connection URL used by the migration runner
func (c PostgresConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled        bool
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// SourcesConfig holds the upstream transaction endpoints
type SourcesConfig struct {
	PrimaryURL      string
	SecondaryURL    string
	Timeout         time.Duration // per attempt
	BreakerFailures int           // consecutive failures before a source is skipped
	BreakerCooldown time.Duration
}

// SnapshotConfig controls caching and fallback of the transaction snapshot
type SnapshotConfig struct {
	CacheTTL        time.Duration
	MaxStaleness    time.Duration // 0 disables the bound
	BackupFilePath  string
	RefreshInterval time.Duration // 0 disables the background refresher
}

// ReportHistoryConfig selects the report-count backend
type ReportHistoryConfig struct {
	Backend  string // "none" or "postgres"
	CacheTTL time.Duration
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env is optional; variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "fraud_signals"),
				User:           getEnv("POSTGRES_USER", "fraud"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			Redis: RedisConfig{
				Enabled:        getEnvAsBool("REDIS_ENABLED", false),
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Sources: SourcesConfig{
			PrimaryURL:      getEnv("SOURCE_PRIMARY_URL", ""),
			SecondaryURL:    getEnv("SOURCE_SECONDARY_URL", ""),
			Timeout:         getEnvAsDuration("SOURCE_TIMEOUT", 15*time.Second),
			BreakerFailures: getEnvAsInt("SOURCE_BREAKER_FAILURES", 5),
			BreakerCooldown: getEnvAsDuration("SOURCE_BREAKER_COOLDOWN", 30*time.Second),
		},
		Snapshot: SnapshotConfig{
			CacheTTL:        getEnvAsDuration("SNAPSHOT_CACHE_TTL", 5*time.Minute),
			MaxStaleness:    getEnvAsDuration("SNAPSHOT_MAX_STALENESS", 24*time.Hour),
			BackupFilePath:  getEnv("BACKUP_FILE_PATH", "data/transactions_backup.json"),
			RefreshInterval: getEnvAsDuration("SNAPSHOT_REFRESH_INTERVAL", 0),
		},
		ReportHistory: ReportHistoryConfig{
			Backend:  strings.ToLower(getEnv("REPORT_HISTORY_BACKEND", "none")),
			CacheTTL: getEnvAsDuration("REPORT_HISTORY_CACHE_TTL", 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail at runtime
func (c *Config) Validate() error {
	if c.Sources.Timeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be positive, got %v", c.Sources.Timeout)
	}
	if c.Snapshot.CacheTTL < 0 {
		return fmt.Errorf("SNAPSHOT_CACHE_TTL cannot be negative")
	}
	if c.Snapshot.MaxStaleness < 0 {
		return fmt.Errorf("SNAPSHOT_MAX_STALENESS cannot be negative")
	}
	switch c.ReportHistory.Backend {
	case "none", "postgres":
	default:
		return fmt.Errorf("unknown REPORT_HISTORY_BACKEND: %s", c.ReportHistory.Backend)
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
