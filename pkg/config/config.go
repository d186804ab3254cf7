package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database     DatabaseConfig
	Redis        RedisConfig
	Ehr          EhrConfig
	ProviderSync SyncConfig
	ScheduleSync ScheduleSyncConfig
	OTEL         OTELConfig
	Env          string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// EhrConfig holds configuration for the external scheduling system client
type EhrConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SyncConfig holds tunables for the per-provider availability sync
type SyncConfig struct {
	DaysAhead    int
	Interval     time.Duration
	InitialDelay time.Duration
	LockTTL      time.Duration
}

// ScheduleSyncConfig holds tunables for the wide-window schedule cache sync
type ScheduleSyncConfig struct {
	DaysAhead    int
	Interval     time.Duration
	InitialDelay time.Duration
	LockTTL      time.Duration
	Workers      int
	Timeout      time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "care_coordination"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Ehr: EhrConfig{
			BaseURL: getEnv("EHR_BASE_URL", "http://localhost:8100"),
			APIKey:  getEnv("EHR_API_KEY", ""),
			Timeout: getEnvAsDuration("EHR_TIMEOUT", 30*time.Second),
		},
		ProviderSync: SyncConfig{
			// 7 weeks and 1 day
			DaysAhead:    getEnvAsInt("PROVIDER_SYNC_DAYS_AHEAD", 50),
			Interval:     getEnvAsDuration("PROVIDER_SYNC_INTERVAL", 10*time.Minute),
			InitialDelay: getEnvAsDuration("PROVIDER_SYNC_INITIAL_DELAY", 10*time.Second),
			LockTTL:      getEnvAsDuration("PROVIDER_SYNC_LOCK_TTL", 30*time.Minute),
		},
		ScheduleSync: ScheduleSyncConfig{
			DaysAhead:    getEnvAsInt("SCHEDULE_SYNC_DAYS_AHEAD", 60),
			Interval:     getEnvAsDuration("SCHEDULE_SYNC_INTERVAL", time.Minute),
			InitialDelay: getEnvAsDuration("SCHEDULE_SYNC_INITIAL_DELAY", 10*time.Second),
			LockTTL:      getEnvAsDuration("SCHEDULE_SYNC_LOCK_TTL", 10*time.Minute),
			Workers:      getEnvAsInt("SCHEDULE_SYNC_WORKERS", 10),
			Timeout:      getEnvAsDuration("SCHEDULE_SYNC_TIMEOUT", 180*time.Second),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "availability-sync"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Env: getEnv("APP_ENV", "development"),
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
