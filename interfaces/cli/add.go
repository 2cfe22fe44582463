package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/artemMprokhorov/hippograph-pro/application/services"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
)

func newAddCommand(open openContainerFunc) *cobra.Command {
	var (
		category            string
		importance          string
		emotionalTone       float64
		emotionalIntensity  float64
		emotionalReflection string
		force               bool
		timeout             time.Duration
	)

	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Record a new memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := c.Ingest.Add(ctx, services.AddRequest{
				Content:             args[0],
				Category:            category,
				Importance:          entities.Importance(importance),
				EmotionalTone:       emotionalTone,
				EmotionalIntensity:  emotionalIntensity,
				EmotionalReflection: emotionalReflection,
				Force:               force,
			})
			if err != nil {
				return err
			}

			c.Scheduler.NotifyNodeAdded(cmd.Context())

			fmt.Fprintf(cmd.OutOrStdout(), "added node %d\n", result.ID)
			if result.HasDuplicateWarning {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: similar to existing node %d (use --force to add anyway)\n", result.DuplicateWarningID)
			}
			if result.Degraded {
				fmt.Fprintf(cmd.OutOrStdout(), "degraded: %s\n", result.DegradationReason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "memory category")
	cmd.Flags().StringVar(&importance, "importance", string(entities.ImportanceNormal), "critical, normal, or low")
	cmd.Flags().Float64Var(&emotionalTone, "tone", 0, "emotional tone, -1 to 1")
	cmd.Flags().Float64Var(&emotionalIntensity, "intensity", 0, "emotional intensity, 0 to 1")
	cmd.Flags().StringVar(&emotionalReflection, "reflection", "", "free-text emotional reflection")
	cmd.Flags().BoolVar(&force, "force", false, "add even if a near-duplicate is found")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "pipeline timeout")

	return cmd
}
