// Package cli implements the HippoGraph command-line surface: the
// thinnest possible layer over the application services, in the
// teacher's pattern of cobra commands that parse flags, call a single
// application entry point, and format the result — never holding
// business logic themselves.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artemMprokhorov/hippograph-pro/infrastructure/di"
	"github.com/artemMprokhorov/hippograph-pro/pkg/config"
)

// NewRootCommand builds the hippograph root command and every
// subcommand, deferring container construction until Execute actually
// needs it so `hippograph --help` never opens the store.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "hippograph",
		Short:         "A personal associative memory store for AI assistants",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to hippograph.yaml")

	openContainer := func(cmd *cobra.Command) (*di.Container, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return di.New(cfg)
	}

	root.AddCommand(
		newAddCommand(openContainer),
		newSearchCommand(openContainer),
		newHistoryCommand(openContainer),
		newRestoreCommand(openContainer),
		newStatsCommand(openContainer),
		newGraphCommand(openContainer),
		newSleepCommand(openContainer),
	)
	return root
}
