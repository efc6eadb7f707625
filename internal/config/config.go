// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the server and CLI read at startup
type Config struct {
	Port            int           `mapstructure:"PORT"`
	APIToken        string        `mapstructure:"API_TOKEN"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	RulesFile       string        `mapstructure:"RULES_FILE"`
	DatasetSeed     int64         `mapstructure:"DATASET_SEED"`
	CacheTTL        time.Duration `mapstructure:"CACHE_TTL"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	ErrorSampleRate int           `mapstructure:"ERROR_SAMPLE_RATE"`
	MetricsEnabled  bool          `mapstructure:"METRICS_ENABLED"`
}

var defaults = map[string]any{
	"PORT":              8080,
	"API_TOKEN":         "demo-api-key-123",
	"DATABASE_URL":      "",
	"RULES_FILE":        "",
	"DATASET_SEED":      0,
	"CACHE_TTL":         "10m",
	"LOG_LEVEL":         "INFO",
	"ERROR_SAMPLE_RATE": 100,
	"METRICS_ENABLED":   true,
}

// Load reads .env (if present) into the environment, then resolves every
// key from the environment with the defaults above
func Load() (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}
	return LoadFrom(viper.New())
}

// LoadFrom resolves configuration through v. Callers may preset values on v
// (flags, tests) before calling.
func LoadFrom(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return errors.New("API_TOKEN must not be empty")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative, got %s", c.CacheTTL)
	}
	if c.ErrorSampleRate < 1 {
		return fmt.Errorf("ERROR_SAMPLE_RATE must be at least 1, got %d", c.ErrorSampleRate)
	}
	return nil
}

// Addr returns the listen address for Port
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
