// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/edupilot/edupilot/pkg/observability"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	Store  StoreConfig
	Redis  RedisConfig

	LogLevel observability.LogLevel
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// AuthConfig holds token and password hashing configuration.
type AuthConfig struct {
	SecretKey        string
	Algorithm        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	BcryptCost       int
}

// StoreConfig holds the user store connection configuration.
type StoreConfig struct {
	DatabaseURL string
	MaxConns    int
	MinConns    int
	// Timeout is the per-operation deadline for store I/O.
	Timeout time.Duration
}

// RedisConfig holds the shared KV backend configuration used by the rate
// limiter and the role cache.
type RedisConfig struct {
	Host     string
	Port     string
	DB       int
	Password string
	// Timeout is the per-operation deadline for KV I/O.
	Timeout time.Duration
}

// Addr returns the host:port address of the redis backend.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Load reads configuration from the environment. It fails when SECRET_KEY or
// ACCESS_TOKEN_EXPIRE_MINUTES is missing; the process must not start without
// a signing secret.
func Load() (*Config, error) {
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}

	accessMinutes := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 0)
	if accessMinutes <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES is required and must be positive")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("APP_HOST", "0.0.0.0"),
			Port:            getEnv("APP_PORT", "8000"),
			ReadTimeout:     getEnvDuration("APP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("APP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("APP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  splitAndTrim(getEnv("APP_ALLOWED_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			SecretKey:       secret,
			Algorithm:       getEnv("ALGORITHM", "HS256"),
			AccessTokenTTL:  time.Duration(accessMinutes) * time.Minute,
			RefreshTokenTTL: time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
			BcryptCost:      getEnvInt("BCRYPT_COST", 10),
		},
		Store: StoreConfig{
			DatabaseURL: getEnv("DATABASE_URL", ""),
			MaxConns:    getEnvInt("DATABASE_MAX_CONNS", 20),
			MinConns:    getEnvInt("DATABASE_MIN_CONNS", 2),
			Timeout:     getEnvDuration("DATABASE_TIMEOUT", 2*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			DB:       getEnvInt("REDIS_DB", 0),
			Password: getEnv("REDIS_PASSWORD", ""),
			Timeout:  getEnvDuration("REDIS_TIMEOUT", 500*time.Millisecond),
		},
		LogLevel: observability.ParseLogLevel(getEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported signing algorithm: %s", c.Auth.Algorithm)
	}
	if c.Auth.BcryptCost < 10 {
		return fmt.Errorf("bcrypt cost must be at least 10, got %d", c.Auth.BcryptCost)
	}
	if c.Store.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// splitAndTrim splits a comma-separated list and trims whitespace.
func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
