// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./test.db"

history:
  max_items: 200
  max_age: "720h"

monitor:
  poll_interval: "500ms"
  debounce: "50ms"
  ignore_apps:
    - "PasswordManager"
    - "Keychain Access"

backup:
  directory: "./backups"
  keep_count: 5
  interval: "12h"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}

	// History config with duration parsing
	if cfg.History.MaxItems != 200 {
		t.Errorf("History.MaxItems = %d, want 200", cfg.History.MaxItems)
	}
	if cfg.History.MaxAge != 720*time.Hour {
		t.Errorf("History.MaxAge = %v, want %v", cfg.History.MaxAge, 720*time.Hour)
	}

	// Monitor config
	if cfg.Monitor.PollInterval != 500*time.Millisecond {
		t.Errorf("Monitor.PollInterval = %v, want %v", cfg.Monitor.PollInterval, 500*time.Millisecond)
	}
	if cfg.Monitor.Debounce != 50*time.Millisecond {
		t.Errorf("Monitor.Debounce = %v, want %v", cfg.Monitor.Debounce, 50*time.Millisecond)
	}
	if len(cfg.Monitor.IgnoreApps) != 2 {
		t.Errorf("Monitor.IgnoreApps len = %d, want 2", len(cfg.Monitor.IgnoreApps))
	}

	// Backup config
	if cfg.Backup.Directory != "./backups" {
		t.Errorf("Backup.Directory = %q, want %q", cfg.Backup.Directory, "./backups")
	}
	if cfg.Backup.KeepCount != 5 {
		t.Errorf("Backup.KeepCount = %d, want 5", cfg.Backup.KeepCount)
	}
	if cfg.Backup.Interval != 12*time.Hour {
		t.Errorf("Backup.Interval = %v, want %v", cfg.Backup.Interval, 12*time.Hour)
	}

	// Logging config
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_DefaultsApply(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./minimal.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Monitor.PollInterval != 250*time.Millisecond {
		t.Errorf("default PollInterval = %v, want 250ms", cfg.Monitor.PollInterval)
	}
	if cfg.Monitor.Debounce != 100*time.Millisecond {
		t.Errorf("default Debounce = %v, want 100ms", cfg.Monitor.Debounce)
	}
	if cfg.History.MaxItems != 100 {
		t.Errorf("default MaxItems = %d, want 100", cfg.History.MaxItems)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("CLIPBOOK_TEST_DB", "/tmp/from-env.db")

	configPath := writeConfig(t, `
database:
  path: "${CLIPBOOK_TEST_DB}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/tmp/from-env.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/from-env.db")
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "${CLIPBOOK_DEFINITELY_UNSET_VAR}"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected validation error for empty database path")
	}
	if !strings.Contains(err.Error(), "database.path") {
		t.Errorf("error should mention database.path, got: %v", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./test.db"
monitor:
  poll_interval: "not-a-duration"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "poll_interval") {
		t.Errorf("error should mention poll_interval, got: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	configPath := writeConfig(t, "database: [unclosed")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.Database.Path = "./test.db"
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"negative max items", func(c *Config) { c.History.MaxItems = -1 }, "max_items"},
		{"zero poll interval", func(c *Config) { c.Monitor.PollInterval = 0 }, "poll_interval"},
		{"negative debounce", func(c *Config) { c.Monitor.Debounce = -time.Second }, "debounce"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"backup interval without dir", func(c *Config) {
			c.Backup.Interval = time.Hour
			c.Backup.Directory = ""
		}, "backup.directory"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}
