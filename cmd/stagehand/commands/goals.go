package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newGoalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goals",
		Short: "List the canonical goals of the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := c.app.Goals(cmd.Context(), c.configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, n := range names {
				_, _ = fmt.Fprintln(out, n)
			}
			return nil
		},
	}
}
