// ABOUTME: Favorite and tag commands operating on single items.
// ABOUTME: Accepts full item ids as printed by history and search.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewFavoriteCommand creates the favorite command.
func NewFavoriteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "favorite <id>",
		Short:        "Toggle an item's favorite flag",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			fav, err := s.ToggleFavorite(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("toggling favorite: %w", err)
			}
			if fav {
				fmt.Fprintf(cmd.OutOrStdout(), "%s favorited\n", shortID(args[0]))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s unfavorited\n", shortID(args[0]))
			}
			return nil
		},
	}
}

// NewTagCommand creates the tag command group.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage item tags",
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "add <id> <tag>",
		Short:        "Add a tag to an item",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.AddTag(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("adding tag: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tagged %s with %s\n", shortID(args[0]), args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:          "remove <id> <tag>",
		Short:        "Remove a tag from an item",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.RemoveTag(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("removing tag: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", args[1], shortID(args[0]))
			return nil
		},
	})

	return cmd
}
