// ABOUTME: Destructive commands: delete one item, clear all, age-based cleanup.
// ABOUTME: clear requires --yes to guard against accidental wipes.

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "delete <id>",
		Short:        "Delete one item from history",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting item: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", shortID(args[0]))
			return nil
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:          "clear",
		Short:        "Remove all items from history",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}

			s, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			removed, err := s.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clearing history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d items\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing all history")
	return cmd
}

// NewCleanupCommand creates the cleanup command.
func NewCleanupCommand(rootOpts *RootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:          "cleanup",
		Short:        "Delete items older than a retention window",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			maxAge := olderThan
			if maxAge <= 0 {
				maxAge = cfg.History.MaxAge
			}
			if maxAge <= 0 {
				return fmt.Errorf("no retention window: pass --older-than or set history.max_age")
			}

			removed, err := s.CleanupOlderThan(cmd.Context(), maxAge)
			if err != nil {
				return fmt.Errorf("cleaning up: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d items older than %s\n", removed, maxAge)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "retention window (default history.max_age from config)")
	return cmd
}
