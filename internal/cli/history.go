// ABOUTME: History listing commands.
// ABOUTME: Lists recent items with optional favorite and content-type filters.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thuanpham582002/ClipBook/internal/store"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		limit     int
		favorites bool
		typeName  string
	)

	cmd := &cobra.Command{
		Use:          "history",
		Short:        "List clipboard history, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx := cmd.Context()

			var items []*store.Item
			switch {
			case favorites:
				items, err = s.ListFavorites(ctx)
			case typeName != "":
				items, err = s.ListByContentType(ctx, store.ParseContentType(typeName))
			default:
				items, err = s.List(ctx, limit)
			}
			if err != nil {
				return fmt.Errorf("listing history: %w", err)
			}

			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum items to show (default 100)")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "show only favorited items")
	cmd.Flags().StringVar(&typeName, "type", "", "filter by content type (text|image|file|html)")

	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "search <query>",
		Short:        "Search history content, source apps and tags",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			items, err := s.Search(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("searching: %w", err)
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
}
