// ABOUTME: Configuration loading and parsing for clipbook
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete clipbook configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	History  HistoryConfig  `yaml:"history"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Backup   BackupConfig   `yaml:"backup"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// HistoryConfig holds retention configuration for stored items
type HistoryConfig struct {
	MaxItems int           `yaml:"max_items"`
	MaxAge   time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	MaxAgeRaw string `yaml:"max_age"`
}

// MonitorConfig holds clipboard polling configuration
type MonitorConfig struct {
	PollInterval time.Duration `yaml:"-"`
	Debounce     time.Duration `yaml:"-"`
	IgnoreApps   []string      `yaml:"ignore_apps"`

	// Raw string values for YAML unmarshaling
	PollIntervalRaw string `yaml:"poll_interval"`
	DebounceRaw     string `yaml:"debounce"`
}

// BackupConfig holds automatic backup configuration
type BackupConfig struct {
	Directory string        `yaml:"directory"`
	KeepCount int           `yaml:"keep_count"`
	Interval  time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	IntervalRaw string `yaml:"interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with sensible defaults, rooted under
// the user's home directory.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".local", "share", "clipbook")
	return &Config{
		Database: DatabaseConfig{Path: filepath.Join(dataDir, "clipbook.db")},
		History: HistoryConfig{
			MaxItems: 100,
			MaxAge:   30 * 24 * time.Hour,
		},
		Monitor: MonitorConfig{
			PollInterval: 250 * time.Millisecond,
			Debounce:     100 * time.Millisecond,
		},
		Backup: BackupConfig{
			Directory: filepath.Join(dataDir, "backups"),
			KeepCount: 10,
			Interval:  24 * time.Hour,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.History.MaxItems < 0 {
		return fmt.Errorf("history.max_items must not be negative")
	}
	if c.History.MaxAge < 0 {
		return fmt.Errorf("history.max_age must not be negative")
	}

	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	if c.Monitor.Debounce < 0 {
		return fmt.Errorf("monitor.debounce must not be negative")
	}
	if c.Monitor.Debounce >= c.Monitor.PollInterval*100 {
		return fmt.Errorf("monitor.debounce %s is implausibly large for poll_interval %s",
			c.Monitor.Debounce, c.Monitor.PollInterval)
	}

	if c.Backup.KeepCount < 0 {
		return fmt.Errorf("backup.keep_count must not be negative")
	}
	if c.Backup.Interval > 0 && c.Backup.Directory == "" {
		return fmt.Errorf("backup.directory is required when backup.interval is set")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.History.MaxAgeRaw != "" {
		cfg.History.MaxAge, err = time.ParseDuration(cfg.History.MaxAgeRaw)
		if err != nil {
			return fmt.Errorf("parsing history.max_age %q: %w", cfg.History.MaxAgeRaw, err)
		}
	}

	if cfg.Monitor.PollIntervalRaw != "" {
		cfg.Monitor.PollInterval, err = time.ParseDuration(cfg.Monitor.PollIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing monitor.poll_interval %q: %w", cfg.Monitor.PollIntervalRaw, err)
		}
	}

	if cfg.Monitor.DebounceRaw != "" {
		cfg.Monitor.Debounce, err = time.ParseDuration(cfg.Monitor.DebounceRaw)
		if err != nil {
			return fmt.Errorf("parsing monitor.debounce %q: %w", cfg.Monitor.DebounceRaw, err)
		}
	}

	if cfg.Backup.IntervalRaw != "" {
		cfg.Backup.Interval, err = time.ParseDuration(cfg.Backup.IntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing backup.interval %q: %w", cfg.Backup.IntervalRaw, err)
		}
	}

	return nil
}
