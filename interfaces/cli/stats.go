package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCommand(open openContainerFunc) *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store size and recent search_stats({window})",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			nodes, err := c.StoreDB.Store.NodeCount(ctx)
			if err != nil {
				return err
			}
			edges, err := c.StoreDB.Store.EdgeCount(ctx)
			if err != nil {
				return err
			}
			entities, err := c.StoreDB.Store.EntityCount(ctx)
			if err != nil {
				return err
			}
			categories, err := c.StoreDB.Store.Categories(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "nodes: %d\nedges: %d\nentities: %d\n", nodes, edges, entities)
			for category, count := range categories {
				fmt.Fprintf(out, "  %s: %d\n", category, count)
			}

			stats := c.SearchLog.Stats(window, time.Now())
			fmt.Fprintf(out, "\nsearch_stats(%s):\n", window)
			fmt.Fprintf(out, "  count: %d\n", stats.Count)
			fmt.Fprintf(out, "  zero_result_rate: %.3f\n", stats.ZeroResultRate)
			fmt.Fprintf(out, "  degraded_rate: %.3f\n", stats.DegradedRate)
			fmt.Fprintf(out, "  p50_total: %s\n", stats.P50.Total)
			fmt.Fprintf(out, "  p95_total: %s\n", stats.P95.Total)
			fmt.Fprintf(out, "  p99_total: %s\n", stats.P99.Total)
			return nil
		},
	}

	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "search_stats lookback window")
	return cmd
}
