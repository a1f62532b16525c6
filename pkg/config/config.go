// Package config provides configuration for the FilterLists ETL.
// Settings come from environment variables (optionally seeded from a .env
// file by the entry point) or from a YAML file with ${VAR} substitution.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default values used when neither the environment nor a config file
// provides a setting.
const (
	DefaultBaseURL        = "https://api.filterlists.com"
	DefaultMongoURI       = "mongodb://localhost:27017"
	DefaultDatabase       = "filterlists_db"
	DefaultRequestTimeout = 10 * time.Second
)

// Config holds everything the pipeline needs at startup.
type Config struct {
	// BaseURL is the root of the catalog API
	BaseURL string `yaml:"base_url" json:"base_url"`
	// MongoURI is the storage connection string
	MongoURI string `yaml:"mongo_uri" json:"mongo_uri"`
	// Database is the storage database name
	Database string `yaml:"database" json:"database"`
	// RequestTimeout bounds each fetch attempt
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`

	// Logging configuration
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		MongoURI:       DefaultMongoURI,
		Database:       DefaultDatabase,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       "info",
	}
}

// FromEnv returns a Config populated from environment variables,
// falling back to defaults for anything unset.
func FromEnv() (*Config, error) {
	cfg := New()

	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.MongoURI = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", v, err)
		}
		cfg.RequestTimeout = d
	}

	return cfg, cfg.Validate()
}

// parseTimeout accepts a Go duration ("10s") or a bare number of seconds ("10").
func parseTimeout(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Validate validates the configuration for correctness.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("mongo_uri is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}
