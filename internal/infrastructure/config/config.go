// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	threshold := cfg.Matching.ConfidenceThreshold
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Matching      MatchingConfig      `yaml:"matching"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// MatchingConfig tunes the reconciliation engine.
//
// TryBothDates is a pointer so an absent key keeps the default (true)
// while an explicit `try_both_dates: false` turns it off.
type MatchingConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	AmbiguityWindow     float64 `yaml:"ambiguity_window"`
	MaxCandidates       int     `yaml:"max_candidates"`
	Workers             int     `yaml:"workers"`
	AmountTolerance     float64 `yaml:"amount_tolerance"`
	FeeProportion       float64 `yaml:"fee_proportion"`
	FeeCap              float64 `yaml:"fee_cap"`
	DateCutoffDays      int     `yaml:"date_cutoff_days"`
	TryBothDates        *bool   `yaml:"try_both_dates"`
}

// FlexibleDates reports whether flexible-date documents should be
// scored against both transaction dates.
func (m MatchingConfig) FlexibleDates() bool {
	return m.TryBothDates == nil || *m.TryBothDates
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECON_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Storage: StorageConfig{
			DatabasePath: getEnv("RECON_DB_PATH", "charge_recon.db"),
		},
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8080),
		},
		Matching: MatchingConfig{
			ConfidenceThreshold: getEnvFloat("MATCH_CONFIDENCE_THRESHOLD", 0.95),
			AmbiguityWindow:     getEnvFloat("MATCH_AMBIGUITY_WINDOW", 0.02),
			MaxCandidates:       getEnvInt("MATCH_MAX_CANDIDATES", 5),
			Workers:             getEnvInt("MATCH_WORKERS", 4),
			AmountTolerance:     getEnvFloat("MATCH_AMOUNT_TOLERANCE", 5),
			FeeProportion:       getEnvFloat("MATCH_FEE_PROPORTION", 0.01),
			FeeCap:              getEnvFloat("MATCH_FEE_CAP", 30),
			DateCutoffDays:      getEnvInt("MATCH_DATE_CUTOFF_DAYS", 60),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills zero values so a sparse YAML file still yields a
// working configuration.
func (c *Config) applyDefaults() {
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "charge_recon.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	m := &c.Matching
	if m.ConfidenceThreshold == 0 {
		m.ConfidenceThreshold = 0.95
	}
	if m.AmbiguityWindow == 0 {
		m.AmbiguityWindow = 0.02
	}
	if m.MaxCandidates == 0 {
		m.MaxCandidates = 5
	}
	if m.Workers == 0 {
		m.Workers = 4
	}
	if m.AmountTolerance == 0 {
		m.AmountTolerance = 5
	}
	if m.FeeProportion == 0 {
		m.FeeProportion = 0.01
	}
	if m.FeeCap == 0 {
		m.FeeCap = 30
	}
	if m.DateCutoffDays == 0 {
		m.DateCutoffDays = 60
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvFloat retrieves a float environment variable with a fallback default
func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		var result float64
		if _, err := fmt.Sscanf(val, "%f", &result); err == nil {
			return result
		}
	}
	return fallback
}
