// ABOUTME: Backup command group: create, restore, history, prune.
// ABOUTME: Surfaces Failed ledger jobs as command errors with their messages.

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thuanpham582002/ClipBook/internal/backup"
)

// NewBackupCommand creates the backup command group.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot and restore the clipboard store",
	}

	cmd.AddCommand(newBackupCreateCommand(rootOpts))
	cmd.AddCommand(newBackupRestoreCommand(rootOpts))
	cmd.AddCommand(newBackupHistoryCommand(rootOpts))
	cmd.AddCommand(newBackupPruneCommand(rootOpts))

	return cmd
}

func newBackupCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "create [path]",
		Short:        "Snapshot the store to a file",
		Long:         "Snapshot the whole store to a file. Without a path, a timestamped file is written into the configured backup directory.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()
			coord := backup.NewCoordinator(s.DB(), cfg.Database.Path)
			ctx := cmd.Context()

			var job *backup.Job
			if len(args) == 1 {
				job, err = coord.Backup(ctx, args[0])
			} else {
				if cfg.Backup.Directory == "" {
					return fmt.Errorf("no path given and backup.directory is not configured")
				}
				job, err = coord.ScheduleAutomatic(ctx, cfg.Backup.Directory)
			}
			if err != nil {
				return fmt.Errorf("creating backup: %w", err)
			}
			if job.Failed() {
				return fmt.Errorf("backup failed: %s", job.ErrorMessage)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s (%d items, %s)\n",
				job.FilePath, job.ItemsCount, formatBytes(job.FileSizeBytes))
			return nil
		},
	}
}

func newBackupRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:          "restore <path>",
		Short:        "Replace the store's contents with a snapshot",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("restore replaces all current history; confirm with --yes")
			}

			s, cfg, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()
			coord := backup.NewCoordinator(s.DB(), cfg.Database.Path)

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			job, err := coord.Restore(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("restoring: %w", err)
			}
			if job.Failed() {
				return fmt.Errorf("restore failed: %s", job.ErrorMessage)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "restored %d items from %s\n", job.ItemsCount, path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm replacing current history")
	return cmd
}

func newBackupHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:          "history",
		Short:        "List backup and restore jobs, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()
			coord := backup.NewCoordinator(s.DB(), cfg.Database.Path)

			jobs, err := coord.History(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("reading backup history: %w", err)
			}
			printJobs(cmd.OutOrStdout(), jobs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum jobs to show (default 50)")
	return cmd
}

func newBackupPruneCommand(rootOpts *RootOptions) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:          "prune",
		Short:        "Delete old backup files beyond the retention count",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()
			coord := backup.NewCoordinator(s.DB(), cfg.Database.Path)

			if cfg.Backup.Directory == "" {
				return fmt.Errorf("backup.directory is not configured")
			}
			count := keep
			if count <= 0 {
				count = cfg.Backup.KeepCount
			}

			removed, err := coord.Prune(cfg.Backup.Directory, count)
			if err != nil {
				return fmt.Errorf("pruning backups: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d backup files, kept %d\n", removed, count)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "backups to keep (default backup.keep_count from config)")
	return cmd
}
