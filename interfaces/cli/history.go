package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHistoryCommand(open openContainerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <node-id>",
		Short: "List a node's retained content versions",
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

			versions, err := c.StoreDB.Store.GetHistory(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, v := range versions {
				fmt.Fprintf(cmd.OutOrStdout(), "v%d\t%s\t%s\n", v.Version, v.CreatedAt.Format("2006-01-02T15:04:05"), v.Content)
			}
			return nil
		},
	}
	return cmd
}
