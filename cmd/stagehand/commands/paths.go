package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.trai.ch/zerr"
)

func (c *CLI) newPathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved artifact paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var f resolver.Filter
			if cmd.Flags().Changed("stage") {
				n, _ := cmd.Flags().GetInt("stage")
				s := domain.Stage(n)
				if s < domain.MinStage || s > domain.MaxStage {
					return zerr.With(zerr.Wrap(domain.ErrOutOfDomain, "stage out of range"), "stage", n)
				}
				f.Stage = &s
			}
			host, _ := cmd.Flags().GetString("host")
			target, _ := cmd.Flags().GetString("target")
			f.Host = domain.Triple(host)
			f.Target = domain.Triple(target)

			return c.app.Paths(cmd.Context(), c.configPath, f, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Int("stage", 0, "Only show artifacts of this stage")
	cmd.Flags().String("host", "", "Only show artifacts of this host triple")
	cmd.Flags().String("target", "", "Only show artifacts of this target triple")
	return cmd
}
