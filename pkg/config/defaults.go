package config

import (
	"strings"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store-specific option defaults are handled by the store factories
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)

	// Add default store if none configured
	if len(cfg.Stores) == 0 {
		cfg.Stores = []StoreConfig{
			{
				Name: "main",
				Type: "memory",
			},
		}
	}

	applyStoreDefaults(cfg.Stores)
	applySnapshotDefaults(&cfg.Snapshot)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false

	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyStoreDefaults initializes per-store option maps.
func applyStoreDefaults(stores []StoreConfig) {
	for i := range stores {
		store := &stores[i]

		// Initialize maps if nil
		if store.Memory == nil {
			store.Memory = make(map[string]any)
		}
		if store.SQLite == nil {
			store.SQLite = make(map[string]any)
		}
		if store.Badger == nil {
			store.Badger = make(map[string]any)
		}
	}
}

// applySnapshotDefaults sets snapshot sink defaults.
func applySnapshotDefaults(cfg *SnapshotConfig) {
	if cfg.Sink == "" {
		cfg.Sink = "directory"
	}

	// Initialize maps if nil
	if cfg.Directory == nil {
		cfg.Directory = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}

	// Apply directory sink defaults (for config file generation)
	if _, ok := cfg.Directory["path"]; !ok {
		cfg.Directory["path"] = "/tmp/propstore-snapshots"
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
