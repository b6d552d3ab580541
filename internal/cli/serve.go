// ABOUTME: The serve command: runs the clipboard monitor as a foreground daemon.
// ABOUTME: Persists accepted changes, schedules automatic backups and retention cleanup.

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thuanpham582002/ClipBook/internal/backup"
	"github.com/thuanpham582002/ClipBook/internal/monitor"
	"github.com/thuanpham582002/ClipBook/internal/store"
)

const banner = `
       _ _       _                 _
   ___| (_)_ __ | |__   ___   ___ | | __
  / __| | | '_ \| '_ \ / _ \ / _ \| |/ /
 | (__| | | |_) | |_) | (_) | (_) |   <
  \___|_|_| .__/|_.__/ \___/ \___/|_|\_\
          |_|
`

// cleanupInterval is how often the daemon applies the age-based
// retention policy.
const cleanupInterval = time.Hour

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Monitor the clipboard and record history",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(ctx context.Context, rootOpts *RootOptions) error {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", Version)

	s, cfg, err := openStore(rootOpts)
	if err != nil {
		return err
	}
	defer s.Close()
	logger := setupLogger(cfg.Logging, rootOpts.Verbose)

	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Polling:   %s (debounce %s)\n", cfg.Monitor.PollInterval, cfg.Monitor.Debounce)
	if cfg.Backup.Interval > 0 {
		green.Print("    ▶ ")
		fmt.Printf("Backups:   %s every %s (keep %d)\n",
			cfg.Backup.Directory, cfg.Backup.Interval, cfg.Backup.KeepCount)
	}
	fmt.Println()

	logger.Info("starting clipbook",
		"database", cfg.Database.Path,
		"poll_interval", cfg.Monitor.PollInterval,
		"debounce", cfg.Monitor.Debounce,
	)

	clip, err := monitor.NewSystemClipboard()
	if err != nil {
		return fmt.Errorf("initializing clipboard access: %w", err)
	}

	mon := monitor.New(clip, monitor.Options{
		PollInterval: cfg.Monitor.PollInterval,
		Debounce:     cfg.Monitor.Debounce,
		IgnoreApps:   cfg.Monitor.IgnoreApps,
	})

	// Persist every accepted change. Save errors are logged, not fatal:
	// the monitor keeps running through transient storage failures.
	mon.AddSubscriber(monitor.SubscriberFunc(func(event monitor.Event) {
		if err := s.Save(ctx, event.Item); err != nil {
			logger.Error("persisting clipboard change", "error", err)
		}
	}))

	mon.Start()
	defer mon.Stop()

	if cfg.Backup.Interval > 0 {
		coord := backup.NewCoordinator(s.DB(), cfg.Database.Path)
		sched := backup.NewScheduler(coord, cfg.Backup.Directory, cfg.Backup.Interval, cfg.Backup.KeepCount)
		sched.Start()
		defer sched.Stop()
	}

	if cfg.History.MaxAge > 0 {
		go runCleanupLoop(ctx, s, cfg.History.MaxAge)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// runCleanupLoop applies the retention policy once per cleanupInterval
// until ctx is cancelled.
func runCleanupLoop(ctx context.Context, s store.Store, maxAge time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupOlderThan(ctx, maxAge); err != nil {
				// Next tick retries.
				continue
			}
		}
	}
}
