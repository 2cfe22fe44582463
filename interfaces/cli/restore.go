package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRestoreCommand(open openContainerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <node-id> <version>",
		Short: "Restore a node's content to a retained version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid node id %q: %w", args[0], err)
			}
			version, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[1], err)
			}

			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.StoreDB.Store.RestoreVersion(cmd.Context(), id, version); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored node %d to version %d\n", id, version)
			return nil
		},
	}
	return cmd
}
