package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artemMprokhorov/hippograph-pro/application/services"
)

func newSleepCommand(open openContainerFunc) *cobra.Command {
	var (
		mode   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "sleep",
		Short: "Trigger a maintenance cycle immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := c.Scheduler.TriggerNow(cmd.Context(), services.SleepMode(mode), dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s sleep, %d steps\n", report.Mode, len(report.Steps))
			for _, step := range report.Steps {
				fmt.Fprintf(out, "  %s: %d changes in %s (%s)\n", step.Name, step.Changes, step.Duration, step.Detail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(services.SleepLight), "light or deep")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without committing")
	return cmd
}
