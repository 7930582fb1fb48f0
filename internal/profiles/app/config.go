package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/profiles/pkg/httpx"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	DatabaseDriver    string        // sqlite or postgres (default: sqlite)
	DatabaseFile      string        // SQLite database file (default: ./profiles.db)
	DatabaseURL       string        // Postgres DSN, required for the postgres driver
	DBMaxConns        int32         // Postgres pool size (default: 10)
	DBMinConns        int32         // Postgres idle connections kept open (default: 0)
	DBMaxConnLifetime time.Duration // Postgres connection recycling (default: 1h)
	DBAcquireTimeout  time.Duration // Wait for a pooled connection before 503 (default: 5s)

	PepperFile string // Path to the password pepper, created when missing (default: ./pepper)

	SessionServiceURL string        // Optional: remote session service; local JWT sessions when empty
	SessionSecret     string        // HS256 secret for local sessions, at least 32 bytes; random per process when empty
	SessionTTL        time.Duration // Local session lifetime (default: 24h)
	SessionIssuer     string        // Local session issuer claim (default: profiles)

	RabbitMQURL        string // Optional: broker for email jobs; jobs are only logged when empty
	RabbitMQEmailQueue string // Email job queue (default: emails)
	ResetPasswordURL   string // Page that receives ?token= (default: http://localhost:3000/reset-password)

	OutboxRelayInterval time.Duration // How often pending events are retried (default: 30s)
	OutboxRelayGrace    time.Duration // Minimum event age before a retry (default: 1m)
	OutboxRelayBatch    int           // Events retried per pass (default: 100)

	RateLimits httpx.RateLimits
}

// LoadConfig reads the environment, after loading a .env file if one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	limits := httpx.DefaultRateLimits()
	limits.Credentials = httpx.RateLimitFromEnv(os.Getenv, "CREDENTIALS", limits.Credentials)
	limits.Authenticated = httpx.RateLimitFromEnv(os.Getenv, "AUTHENTICATED", limits.Authenticated)
	limits.Public = httpx.RateLimitFromEnv(os.Getenv, "PUBLIC", limits.Public)

	return Config{
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		DatabaseDriver:    getEnvOrDefault("DATABASE_DRIVER", DriverSQLite),
		DatabaseFile:      getEnvOrDefault("DATABASE_FILE", "profiles.db"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxConns:        int32(getEnvIntOrDefault("DB_MAX_CONNS", 10)),
		DBMinConns:        int32(getEnvIntOrDefault("DB_MIN_CONNS", 0)),
		DBMaxConnLifetime: getEnvDurationOrDefault("DB_MAX_CONN_LIFETIME", time.Hour),
		DBAcquireTimeout:  getEnvDurationOrDefault("DB_ACQUIRE_TIMEOUT", 5*time.Second),

		PepperFile: getEnvOrDefault("PEPPER_FILE", "pepper"),

		SessionServiceURL: os.Getenv("SESSION_SERVICE_URL"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		SessionTTL:        getEnvDurationOrDefault("SESSION_TTL", 24*time.Hour),
		SessionIssuer:     getEnvOrDefault("SESSION_ISSUER", "profiles"),

		RabbitMQURL:        os.Getenv("RABBITMQ_URL"),
		RabbitMQEmailQueue: getEnvOrDefault("RABBITMQ_EMAIL_QUEUE", "emails"),
		ResetPasswordURL:   getEnvOrDefault("RESET_PASSWORD_URL", "http://localhost:3000/reset-password"),

		OutboxRelayInterval: getEnvDurationOrDefault("OUTBOX_RELAY_INTERVAL", 30*time.Second),
		OutboxRelayGrace:    getEnvDurationOrDefault("OUTBOX_RELAY_GRACE", time.Minute),
		OutboxRelayBatch:    getEnvIntOrDefault("OUTBOX_RELAY_BATCH", 100),

		RateLimits: limits,
	}
}

// Validate reports settings the application cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	if c.SessionServiceURL == "" && c.SessionSecret != "" && len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
