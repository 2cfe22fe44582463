package cli

import (
	"github.com/spf13/cobra"

	"github.com/artemMprokhorov/hippograph-pro/infrastructure/di"
)

// openContainerFunc lazily builds a fully wired Container, letting
// each command decide when (and whether) it needs one.
type openContainerFunc func(cmd *cobra.Command) (*di.Container, error)
