package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// sampleConfigHeader documents the available settings at the top of a
// generated configuration file. The values below it come from
// GetDefaultConfig, so a freshly generated file always loads and
// validates.
const sampleConfigHeader = `# PropStore Configuration File
#
# Generated by "propstore init". The values below are the defaults;
# every setting can also be overridden with PROPSTORE_* environment
# variables (e.g. PROPSTORE_LOGGING_LEVEL=DEBUG).
#
# logging:
#   level:  DEBUG | INFO | WARN | ERROR
#   output: stdout | stderr | <file path>
#
# metrics:
#   enabled: expose Prometheus metrics over HTTP
#   port:    metrics listen port
#
# stores: named property stores, opened in order (the first is the default)
#   type: memory | sqlite | badger
#   sqlite options: path (required), pool_size, busy_timeout (e.g. "5s")
#   badger options: db_path (required), in_memory
#
# snapshot: where "propstore dump" writes archives
#   sink: directory | s3
#   directory options: path
#   s3 options: bucket (required), region (required), key_prefix,
#               endpoint, access_key_id, secret_access_key, max_retries

`

// InitConfig writes a sample configuration file at the default location.
//
// Parameters:
//   - force: Overwrite an existing config file
//
// Returns:
//   - string: Path of the written config file
//   - error: If the file exists (without force) or cannot be written
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}
	return configPath, nil
}

// InitConfigToPath writes a sample configuration file at the given path,
// creating parent directories as needed. Refuses to overwrite an
// existing file unless force is set.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders cfg as a documented YAML document:
// the commented header followed by the marshaled configuration.
func generateYAMLWithComments(cfg *Config) (string, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return sampleConfigHeader + string(body), nil
}
