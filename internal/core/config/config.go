// Package config handles configuration loading and validation for taskr.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvDatabaseDSN overrides database.dsn when set.
const EnvDatabaseDSN = "TASKR_DATABASE_DSN"

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Built-in UI themes; see the styles package for the full list.
const (
	ThemeDefault = "default"
	ThemePlain   = "plain"
)

// Config holds the application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Stats    StatsConfig    `yaml:"stats"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	UI       UIConfig       `yaml:"ui"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// DatabaseConfig selects and tunes the Store backend.
type DatabaseConfig struct {
	Driver       string        `yaml:"driver"`         // sqlite or mysql
	DSN          string        `yaml:"dsn"`            // mysql only
	MaxOpenConns int           `yaml:"max_open_conns"` // connection pool size
	MaxIdleConns int           `yaml:"max_idle_conns"`
	BusyTimeout  int           `yaml:"busy_timeout"` // sqlite, milliseconds
	OpTimeout    time.Duration `yaml:"op_timeout"`   // bound on each Store call
}

// StatsConfig controls the background aggregator.
type StatsConfig struct {
	Schedule   string `yaml:"schedule"`     // cron expression or descriptor, e.g. "@every 10s"
	RunOnStart *bool  `yaml:"run_on_start"` // compute once immediately at startup
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // listen address for /metrics; empty disables it
}

// UIConfig controls terminal output.
type UIConfig struct {
	Theme string `yaml:"theme"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	runOnStart := true
	return Config{
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
			OpTimeout:    5 * time.Second,
		},
		Stats: StatsConfig{
			Schedule:   "@every 10s",
			RunOnStart: &runOnStart,
		},
		UI: UIConfig{
			Theme: ThemeDefault,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	if dsn := os.Getenv(EnvDatabaseDSN); dsn != "" {
		cfg.Database.DSN = dsn
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Database.Driver == "" {
		c.Database.Driver = defaults.Database.Driver
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Database.OpTimeout == 0 {
		c.Database.OpTimeout = defaults.Database.OpTimeout
	}
	if c.Stats.Schedule == "" {
		c.Stats.Schedule = defaults.Stats.Schedule
	}
	if c.Stats.RunOnStart == nil {
		c.Stats.RunOnStart = defaults.Stats.RunOnStart
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// ShouldRunOnStart reports whether the aggregator computes immediately at startup.
func (s StatsConfig) ShouldRunOnStart() bool {
	return s.RunOnStart == nil || *s.RunOnStart
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "taskr.log")
}

// DatabaseFile returns the SQLite database path.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "taskr.db")
}
