package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Clerk (identity provider)
	ClerkJWKSURL  string
	ClerkIssuer   string
	ClerkAudience string

	// Plaid (bank-data provider)
	PlaidClientID    string
	PlaidSecret      string
	PlaidEnvironment string

	// AMQP
	AMQPURL          string
	AMQPExchange     string
	AMQPRequestQueue string
	AMQPEventQueue   string

	// Sync worker
	SyncInterval    time.Duration
	SyncConcurrency int
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budgetbox.db"),

		ClerkJWKSURL:  getEnv("CLERK_JWKS_URL", ""),
		ClerkIssuer:   getEnv("CLERK_ISSUER", ""),
		ClerkAudience: getEnv("CLERK_AUDIENCE", ""),

		PlaidClientID:    getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:      getEnv("PLAID_SECRET", ""),
		PlaidEnvironment: getEnv("PLAID_ENVIRONMENT", "sandbox"),

		AMQPURL:          getEnv("AMQP_URL", ""),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "budgetbox"),
		AMQPRequestQueue: getEnv("AMQP_REQUEST_QUEUE", "sync_requests"),
		AMQPEventQueue:   getEnv("AMQP_EVENT_QUEUE", "sync_events"),

		SyncInterval:    getEnvDuration("SYNC_INTERVAL", 15*time.Minute),
		SyncConcurrency: getEnvInt("SYNC_CONCURRENCY", 4),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate SQLite configuration
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate Clerk configuration
	if c.ClerkJWKSURL == "" {
		errors = append(errors, "CLERK_JWKS_URL is required")
	} else if parsedURL, err := url.Parse(c.ClerkJWKSURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid Clerk JWKS URL '%s': %v", c.ClerkJWKSURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid Clerk JWKS URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}
	if c.ClerkIssuer == "" {
		errors = append(errors, "CLERK_ISSUER is required")
	}

	// Validate Plaid configuration
	if c.PlaidClientID == "" {
		errors = append(errors, "PLAID_CLIENT_ID is required")
	}
	if c.PlaidSecret == "" {
		errors = append(errors, "PLAID_SECRET is required")
	}
	validEnvironments := []string{"sandbox", "production"}
	isValidEnvironment := false
	for _, env := range validEnvironments {
		if c.PlaidEnvironment == env {
			isValidEnvironment = true
			break
		}
	}
	if !isValidEnvironment {
		errors = append(errors, fmt.Sprintf("invalid Plaid environment '%s': must be one of %v", c.PlaidEnvironment, validEnvironments))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRequestQueue == "" {
			errors = append(errors, "AMQP request queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPEventQueue == "" {
			errors = append(errors, "AMQP event queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate worker configuration
	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.SyncConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync concurrency %d: must be at least 1", c.SyncConcurrency))
	} else if c.SyncConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid sync concurrency %d: must be at most 64", c.SyncConcurrency))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
