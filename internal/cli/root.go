// ABOUTME: Root cobra command and shared helpers for the clipbook CLI.
// ABOUTME: Resolves config, sets up logging and opens the store for subcommands.

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thuanpham582002/ClipBook/internal/config"
	"github.com/thuanpham582002/ClipBook/internal/store"
)

// Version is set by goreleaser at build time.
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command for the clipbook CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "clipbook",
		Short:   "Clipboard history manager",
		Long:    "Clipbook captures clipboard changes into a searchable, taggable history with snapshot backup and restore.",
		Version: Version,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewFavoriteCommand(opts))
	cmd.AddCommand(NewTagCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewCleanupCommand(opts))
	cmd.AddCommand(NewOptimizeCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))

	return cmd
}

// defaultConfigPath resolves the config file location.
// Priority: CLIPBOOK_CONFIG env var > XDG_CONFIG_HOME/clipbook/config.yaml > ~/.config/clipbook/config.yaml
func defaultConfigPath() string {
	if envPath := os.Getenv("CLIPBOOK_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "clipbook", "config.yaml")
}

// loadConfig loads the configuration, falling back to defaults when no
// config file exists. An explicit --config path must exist.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.ConfigPath
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return config.Default(), nil
	}
	return config.Load(path)
}

// setupLogger configures the process-wide default logger from config.
// Verbose forces debug level.
func setupLogger(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// openStore loads config, configures logging and opens the store. The
// caller owns the returned store and must Close it.
func openStore(opts *RootOptions) (*store.SQLiteStore, *config.Config, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	setupLogger(cfg.Logging, opts.Verbose)

	s, err := store.NewSQLiteStore(cfg.Database.Path, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return s, cfg, nil
}
