package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete PropStore configuration.
//
// This structure captures all configurable aspects of the property
// store tooling including:
//   - Logging configuration
//   - Optional Prometheus metrics endpoint
//   - Named property store definitions (store-specific)
//   - Snapshot sink selection and configuration (sink-specific)
//
// Configuration sources (in order of precedence):
//  1. Environment variables (PROPSTORE_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration options. The
// StoreConfig struct contains type-specific sections (e.g. sqlite,
// badger) and only the section matching the selected type is used; the
// factory functions in stores.go decode them.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Metrics controls the optional Prometheus metrics endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Stores declares the named property stores to open
	Stores []StoreConfig `mapstructure:"stores" validate:"dive"`

	// Snapshot specifies where snapshot archives are kept
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns metrics collection and the HTTP endpoint on
	Enabled bool `mapstructure:"enabled"`

	// Port is the metrics HTTP listen port
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// StoreConfig defines a single named property store.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type StoreConfig struct {
	// Name identifies the store; the CLI selects stores by name.
	// The first configured store is the default.
	Name string `mapstructure:"name" validate:"required"`

	// Type specifies which store implementation to use
	// Valid values: memory, sqlite, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory sqlite badger"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// SQLite contains SQLite-specific configuration
	// Only used when Type = "sqlite"
	SQLite map[string]any `mapstructure:"sqlite"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// SnapshotConfig specifies where snapshot archives are written and read.
//
// The Sink field determines which sink implementation is used.
// Only the corresponding sink-specific configuration section is used.
type SnapshotConfig struct {
	// Sink specifies which snapshot sink implementation to use
	// Valid values: directory, s3
	Sink string `mapstructure:"sink" validate:"required,oneof=directory s3"`

	// Directory contains local-directory sink configuration
	// Only used when Sink = "directory"
	Directory map[string]any `mapstructure:"directory"`

	// S3 contains S3 sink configuration
	// Only used when Sink = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (PROPSTORE_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Set up environment variable support
	// Environment variables use PROPSTORE_ prefix and underscores
	// Example: PROPSTORE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("PROPSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/propstore/config.{yaml,toml}
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml") // Primary format
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - use defaults. Viper
		// reports a missing file from the search path and a missing
		// explicit path differently.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		// Other errors are problems
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	// Check XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "propstore")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, use current directory as last resort
		return "."
	}

	return filepath.Join(home, ".config", "propstore")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the init command).
func GetConfigDir() string {
	return getConfigDir()
}
