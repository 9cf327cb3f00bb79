package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/taskr/internal/core/stats"
	"github.com/colonyops/taskr/internal/core/styles"
)

// Validate checks that the configuration is structurally valid. Every invalid
// field is reported as a criterio field error.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, notEmpty),
		c.validateDatabase(),
		criterio.Run("stats.schedule", c.Stats.Schedule, validSchedule),
		criterio.Run("ui.theme", c.UI.Theme, validTheme),
	)
}

// ValidateDeep performs Validate plus file system checks on the config file
// and data directory. An empty configPath skips the config file check.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func (c *Config) validateDatabase() error {
	var errs criterio.FieldErrorsBuilder

	switch c.Database.Driver {
	case DriverSQLite:
	case DriverMySQL:
		if c.Database.DSN == "" {
			errs = errs.Append("database.dsn", fmt.Errorf("required for the mysql driver (or set %s)", EnvDatabaseDSN))
		}
	default:
		errs = errs.Append("database.driver", fmt.Errorf("must be %q or %q, got %q", DriverSQLite, DriverMySQL, c.Database.Driver))
	}

	if c.Database.MaxOpenConns < 1 {
		errs = errs.Append("database.max_open_conns", errors.New("must be at least 1"))
	}
	if c.Database.MaxIdleConns < 0 {
		errs = errs.Append("database.max_idle_conns", errors.New("cannot be negative"))
	}
	if c.Database.BusyTimeout < 0 {
		errs = errs.Append("database.busy_timeout", errors.New("cannot be negative"))
	}
	if c.Database.OpTimeout < 0 {
		errs = errs.Append("database.op_timeout", errors.New("cannot be negative"))
	}

	return errs.ToError()
}

func notEmpty(s string) error {
	if s == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func validSchedule(s string) error {
	_, err := stats.ParseSchedule(s)
	return err
}

func validTheme(s string) error {
	if _, ok := styles.GetPalette(s); !ok {
		return fmt.Errorf("must be one of %v, got %q", styles.ThemeNames(), s)
	}
	return nil
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return errors.New("exists but is not a directory")
	}
	return nil
}
