// Package config provides centralized configuration management for the inkpad
// server. It loads configuration from CLI flags and environment variables,
// validates required fields, and provides sensible defaults.
//
// The --dev flag relaxes secret requirements for local work: when set, a
// missing MASTER_KEY falls back to the well-known development key.
// Environment variables provide secrets and tuning knobs.
package config

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kuitang/inkpad/internal/db"
	"github.com/kuitang/inkpad/internal/ratelimit"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr string

	// Database and encryption
	MasterKey    string // 64 hex characters (32 bytes); optional in dev mode
	DatabasePath string // Directory holding the documents database

	// Rate limiting
	RateLimitConfig ratelimit.Config

	// Dev mode (controlled by the --dev CLI flag, not an env var)
	Dev bool
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags parses CLI flags and returns them. Call before LoadConfig.
// This registers and parses the --dev and --addr flags.
func ParseFlags() (dev bool, addr string) {
	flag.BoolVar(&dev, "dev", false, "Development mode (allows missing MASTER_KEY, uses a fixed key)")
	flag.StringVar(&addr, "addr", "", "Listen address (default :8080, overrides LISTEN_ADDR env var)")
	flag.Parse()
	return dev, addr
}

// LoadConfig loads configuration from environment variables and CLI flag values.
// The addr flag overrides the LISTEN_ADDR env var if non-empty.
func LoadConfig(dev bool, addr string) (*Config, error) {
	cfg := &Config{}

	cfg.Dev = dev

	// Server settings
	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", ":8080")
	if addr != "" {
		cfg.ListenAddr = addr
	}

	// Database and encryption
	cfg.MasterKey = strings.TrimSpace(os.Getenv("MASTER_KEY"))
	cfg.DatabasePath = getEnvOrDefault("DATABASE_PATH", "/data")

	// Rate limiting
	cfg.RateLimitConfig = ratelimit.Config{
		RPS:             parseFloat64OrDefault("RATE_LIMIT_RPS", 20),
		Burst:           parseIntOrDefault("RATE_LIMIT_BURST", 40),
		CleanupInterval: parseDurationOrDefault("RATE_LIMIT_CLEANUP_INTERVAL", time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
// In dev mode MASTER_KEY may be omitted; otherwise it is required.
func (c *Config) Validate() error {
	var errs []string

	// MasterKey: required outside dev mode (losing it = database unreadable)
	if c.MasterKey == "" {
		if !c.Dev {
			errs = append(errs, "MASTER_KEY is required (generate with: openssl rand -hex 32, or use --dev)")
		}
	} else if len(c.MasterKey) != 64 {
		errs = append(errs, "MASTER_KEY must be 64 hex characters (32 bytes)")
	} else if _, err := hex.DecodeString(c.MasterKey); err != nil {
		errs = append(errs, "MASTER_KEY must be valid hex")
	}

	if c.DatabasePath == "" {
		errs = append(errs, "DATABASE_PATH must not be empty")
	}

	if c.RateLimitConfig.RPS <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitConfig.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	return nil
}

// DEK returns the 32-byte database encryption key. In dev mode with no
// MASTER_KEY set, the fixed development key is returned.
func (c *Config) DEK() ([]byte, error) {
	if c.MasterKey == "" {
		if c.Dev {
			return db.GetHardcodedDEK(), nil
		}
		return nil, errors.New("MASTER_KEY is not set")
	}
	key, err := hex.DecodeString(c.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("decode MASTER_KEY: %w", err)
	}
	return key, nil
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "inkpad server starting...")
	fmt.Fprintf(os.Stderr, "  Listen:   %s\n", c.ListenAddr)
	fmt.Fprintf(os.Stderr, "  Database: %s\n", c.DatabasePath)
	if c.Dev && c.MasterKey == "" {
		fmt.Fprintln(os.Stderr, "  Key:      development key (--dev)")
	} else {
		fmt.Fprintln(os.Stderr, "  Key:      MASTER_KEY (real)")
	}
	fmt.Fprintf(os.Stderr, "  Limits:   %.0f rps, burst %d\n", c.RateLimitConfig.RPS, c.RateLimitConfig.Burst)
	fmt.Fprintln(os.Stderr, "")
}

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// MustLoadConfig loads configuration and panics if validation fails.
// Use this in main() when you want the application to fail fast on bad config.
func MustLoadConfig(dev bool, addr string) *Config {
	cfg, err := LoadConfig(dev, addr)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			panic(fmt.Sprintf("Configuration validation failed:\n  - %s", strings.Join(validationErr.Errors, "\n  - ")))
		}
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}
