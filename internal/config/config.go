package config

import (
	"fmt"
	"time"
)

// Config represents the main seshat configuration
type Config struct {
	// Runtime environment: production, development
	Runtime string `json:"runtime" mapstructure:"runtime"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Session store
	Store StoreConfig `json:"store" mapstructure:"store"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// StoreConfig holds session store configuration
type StoreConfig struct {
	// Root is the base directory for session files. Empty selects
	// <data_dir>/sessions.
	Root string `json:"root" mapstructure:"root"`

	// RetentionDays is the expiry window for cleanup.
	RetentionDays int `json:"retention_days" mapstructure:"retention_days"`

	// CleanupSchedule is a five-field cron expression for the janitor.
	CleanupSchedule string `json:"cleanup_schedule" mapstructure:"cleanup_schedule"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a configuration with defaults applied
func DefaultConfig() *Config {
	return &Config{
		Runtime: "development",
		Store: StoreConfig{
			RetentionDays:   30,
			CleanupSchedule: "0 3 * * *",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Retention returns the expiry window as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Store.RetentionDays) * 24 * time.Hour
}

// IsProduction reports whether the runtime context is production-like.
// Expiry cleanup is only armed in production.
func (c *Config) IsProduction() bool {
	return c.Runtime == "production"
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	switch c.Runtime {
	case "production", "development":
	default:
		return fmt.Errorf("invalid runtime %q: must be production or development", c.Runtime)
	}

	if c.Store.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive, got %d", c.Store.RetentionDays)
	}

	return nil
}
