// ABOUTME: Stats and optimize commands.
// ABOUTME: Reports row statistics, operation metrics, health and runs housekeeping.

package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "stats",
		Short:        "Show store statistics and health",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			rows, err := s.RowStats(ctx)
			if err != nil {
				return fmt.Errorf("reading statistics: %w", err)
			}
			fmt.Fprintf(out, "Items:          %d (%d favorites, %d content types)\n",
				rows.TotalItems, rows.FavoriteCount, rows.DistinctContentTypes)
			if !rows.EarliestItem.IsZero() {
				fmt.Fprintf(out, "Range:          %s - %s\n",
					rows.EarliestItem.Local().Format("2006-01-02 15:04:05"),
					rows.LatestItem.Local().Format("2006-01-02 15:04:05"))
			}

			health := s.HealthCheck(ctx)
			if health.Healthy {
				fmt.Fprintf(out, "Health:         %s (%s)\n", okColor.Sprint("ok"), formatDuration(health.ResponseTime))
			} else {
				fmt.Fprintf(out, "Health:         %s (%s)\n", failedColor.Sprint("unhealthy"), health.Error)
			}

			snap := s.Metrics()
			if len(snap.Operations) > 0 {
				fmt.Fprintln(out, "\nOperations this session:")
				names := make([]string, 0, len(snap.Operations))
				for name := range snap.Operations {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					op := snap.Operations[name]
					fmt.Fprintf(out, "  %-16s %4d calls, avg %s, %d errors\n",
						name, op.Count, formatDuration(op.AverageDuration), op.Errors)
				}
			}
			if snap.CacheHits+snap.CacheMisses > 0 {
				fmt.Fprintf(out, "Dedup cache:    %d hits, %d misses\n", snap.CacheHits, snap.CacheMisses)
			}
			for _, alert := range snap.Alerts {
				fmt.Fprintf(out, "%s %s\n", failedColor.Sprint("alert:"), alert.Message)
			}
			return nil
		},
	}
}

// NewOptimizeCommand creates the optimize command.
func NewOptimizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "optimize",
		Short:        "Run storage housekeeping",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Optimize(cmd.Context()); err != nil {
				return fmt.Errorf("optimizing: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "store optimized")
			return nil
		},
	}
}
