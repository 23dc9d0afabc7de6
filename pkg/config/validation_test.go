package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_EmptyLogOutput(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Output = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for empty log output")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("Expected 'required' validation error, got: %v", err)
	}
}

func TestValidate_InvalidStoreType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Stores[0].Type = "postgres"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unimplemented store type")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_NoStores(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Stores = []StoreConfig{}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for no stores")
	}
	if !strings.Contains(err.Error(), "at least one") {
		t.Errorf("Expected 'at least one' error, got: %v", err)
	}
}

func TestValidate_DuplicateStoreNames(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Stores = append(cfg.Stores, cfg.Stores[0]) // Duplicate store

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for duplicate store names")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Expected 'duplicate' error, got: %v", err)
	}
}

func TestValidate_EmptyStoreName(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Stores[0].Name = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for empty store name")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("Expected 'required' validation error, got: %v", err)
	}
}

func TestValidate_InvalidMetricsPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = 70000 // Out of range

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for port out of range")
	}
	if !strings.Contains(err.Error(), "lte") {
		t.Errorf("Expected 'lte' validation error, got: %v", err)
	}
}

func TestValidate_NegativeMetricsPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = -1

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for negative port")
	}
}

func TestValidate_InvalidSnapshotSink(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Snapshot.Sink = "ftp"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unsupported snapshot sink")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_LogLevelNormalization(t *testing.T) {
	// Test that validation accepts both uppercase and lowercase log levels
	testCases := []string{"info", "INFO", "debug", "DEBUG", "warn", "WARN", "error", "ERROR"}

	for _, level := range testCases {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		err := Validate(cfg)
		if err != nil {
			t.Errorf("Validation failed for level %q: %v", level, err)
		}

		// Validation should NOT normalize - level should remain as-is
		if cfg.Logging.Level != level {
			t.Errorf("Expected level to remain %q after validation, got %q", level, cfg.Logging.Level)
		}
	}

	// Test that normalization happens in ApplyDefaults
	cfg := &Config{Logging: LoggingConfig{Level: "info"}}
	ApplyDefaults(cfg)
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected ApplyDefaults to normalize 'info' to 'INFO', got %q", cfg.Logging.Level)
	}
}

func TestValidate_MultipleValidStores(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Stores = append(cfg.Stores, StoreConfig{
		Name: "durable",
		Type: "sqlite",
		SQLite: map[string]any{
			"path": "/var/lib/propstore/props.db",
		},
	})

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config with multiple stores, got error: %v", err)
	}
}

func TestValidate_S3Sink(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Snapshot.Sink = "s3"
	cfg.Snapshot.S3 = map[string]any{
		"region": "us-east-1",
		"bucket": "propstore-snapshots",
	}

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected s3 sink config to pass validation, got error: %v", err)
	}
}
