package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Logger   LoggerConfig
	Payment  PaymentConfig
	Delivery DeliveryConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host             string
	Port             int
	CORSAllowOrigins []string
}

// UpstreamConfig describes the remote store service the engines reconcile against.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
	// BreakerFailures is the number of consecutive failures that opens the circuit breaker.
	BreakerFailures int
	BreakerCooldown time.Duration
}

// DatabaseConfig holds database-related configuration for the checkout ledger.
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// RedisConfig holds the session store configuration.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// SessionConfig holds session lifetime settings.
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// PaymentConfig holds the public settings handed to the payment gateway widget.
type PaymentConfig struct {
	GatewayKeyID string
	Currency     string
	MerchantName string
}

// DeliveryConfig holds the serviceable pincode directory configuration.
type DeliveryConfig struct {
	Enabled   bool
	Files     []string
	S3Enabled bool
	S3Bucket  string
	S3Region  string
	S3Prefix  string // Path prefix within bucket (e.g., "pincodes/")
	// ReloadInterval re-reads the lists periodically; zero loads them once.
	ReloadInterval time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:             getEnv("SERVER_HOST", "0.0.0.0"),
			Port:             getEnvAsInt("SERVER_PORT", 8080),
			CORSAllowOrigins: getEnvAsList("CORS_ALLOW_ORIGINS", []string{"*"}),
		},
		Upstream: UpstreamConfig{
			BaseURL:         getEnv("UPSTREAM_BASE_URL", "http://localhost:5000/api"),
			Timeout:         getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),
			BreakerFailures: getEnvAsInt("UPSTREAM_BREAKER_FAILURES", 5),
			BreakerCooldown: getEnvAsDuration("UPSTREAM_BREAKER_COOLDOWN", 30*time.Second),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvAsBool("DB_ENABLED", true),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "storefront"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 2),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			TTL:           getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Payment: PaymentConfig{
			GatewayKeyID: getEnv("GATEWAY_KEY_ID", ""),
			Currency:     getEnv("GATEWAY_CURRENCY", "INR"),
			MerchantName: getEnv("GATEWAY_MERCHANT_NAME", "Eleven Brothers"),
		},
		Delivery: DeliveryConfig{
			Enabled:   getEnvAsBool("DELIVERY_ENABLED", false),
			Files:     getEnvAsList("DELIVERY_FILES", []string{"data/pincodes/south.gz", "data/pincodes/west.gz", "data/pincodes/north.gz"}),
			S3Enabled: getEnvAsBool("DELIVERY_S3_ENABLED", false),
			S3Bucket:  getEnv("DELIVERY_S3_BUCKET", ""),
			S3Region:  getEnv("DELIVERY_S3_REGION", "ap-south-1"),
			S3Prefix:  getEnv("DELIVERY_S3_PREFIX", "pincodes/"),

			ReloadInterval: getEnvAsDuration("DELIVERY_RELOAD_INTERVAL", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream base URL is required")
	}

	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream base URL: %s", c.Upstream.BaseURL)
	}

	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}

	if c.Upstream.BreakerFailures < 1 {
		return fmt.Errorf("upstream breaker failures must be at least 1")
	}

	if c.Database.Enabled {
		if err := c.Database.validate(); err != nil {
			return err
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session sweep interval must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Delivery.Enabled && len(c.Delivery.Files) == 0 {
		return fmt.Errorf("at least one delivery file is required when delivery checks are enabled")
	}

	if c.Delivery.ReloadInterval < 0 {
		return fmt.Errorf("delivery reload interval cannot be negative")
	}

	if c.Delivery.S3Enabled {
		if c.Delivery.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.Delivery.S3Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable or returns a default value.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
