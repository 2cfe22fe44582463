package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/artemMprokhorov/hippograph-pro/application/services"
	domainconfig "github.com/artemMprokhorov/hippograph-pro/domain/config"
	"github.com/artemMprokhorov/hippograph-pro/domain/specifications"
)

func newSearchCommand(open openContainerFunc) *cobra.Command {
	var (
		category   string
		entityType string
		maxResults int
		detail     string
		timeout    time.Duration
		alpha, beta, gamma, delta float64
		overrideBlend bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run the hybrid retrieval pipeline against stored memories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			filters := specifications.RetrievalFilters{}
			if category != "" {
				filters.Category = &category
			}
			if entityType != "" {
				filters.EntityType = &entityType
			}

			req := services.SearchRequest{
				QueryText:  args[0],
				Filters:    filters,
				MaxResults: maxResults,
				DetailMode: services.DetailMode(detail),
			}
			if overrideBlend {
				req.BlendOverride = &domainconfig.BlendWeights{Alpha: alpha, Beta: beta, Gamma: gamma, Delta: delta}
			}

			start := time.Now()
			resp, err := c.Retriever.Search(ctx, req)
			if err != nil {
				return err
			}

			c.Metrics.ObserveSearch(resp.Stats.Durations, len(resp.Results), resp.Stats.Degraded, resp.Stats.DegradationReasons)
			ids := make([]int64, len(resp.Results))
			for i, r := range resp.Results {
				ids[i] = r.ID
			}
			c.SearchLog.Record(args[0], start, resp.Stats.Durations, ids, resp.Stats.Degraded, resp.Stats.DegradationReasons)

			for _, r := range resp.Results {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%.4f\t%s\n", r.ID, r.Score, r.ContentPreview)
			}
			if resp.Stats.Degraded {
				fmt.Fprintf(cmd.OutOrStdout(), "degraded: %v\n", resp.Stats.DegradationReasons)
			}
			if resp.Stats.HasMore {
				fmt.Fprintln(cmd.OutOrStdout(), "(more results available)")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&entityType, "entity-type", "", "filter by linked entity type")
	cmd.Flags().IntVar(&maxResults, "max-results", 5, "result count, capped at 20")
	cmd.Flags().StringVar(&detail, "detail", string(services.DetailBrief), "brief or full")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "pipeline timeout")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.6, "semantic similarity weight")
	cmd.Flags().Float64Var(&beta, "beta", 0.10, "spreading activation weight")
	cmd.Flags().Float64Var(&gamma, "gamma", 0.15, "bm25 weight")
	cmd.Flags().Float64Var(&delta, "delta", 0.15, "temporal weight")
	cmd.Flags().BoolVar(&overrideBlend, "override-blend", false, "use the alpha/beta/gamma/delta flags instead of the configured blend")

	return cmd
}
