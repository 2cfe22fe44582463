package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGraphCommand(open openContainerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <node-id>",
		Short: "List a node's outgoing edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid node id %q: %w", args[0], err)
			}

			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			neighbors, err := c.StoreDB.Store.Neighbors(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, n := range neighbors {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%.4f\n", n.TargetID, n.Type, n.Weight)
			}
			return nil
		},
	}
	return cmd
}
