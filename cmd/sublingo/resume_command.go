package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sublingo/internal/history"
	"sublingo/internal/project"
)

func newResumeCommand(ctx *commandContext) *cobra.Command {
	var residual bool
	var serve bool

	cmd := &cobra.Command{
		Use:   "resume <project>",
		Short: "Translate the lines of a project that are not done yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.requireProviders()
			if err != nil {
				return err
			}
			proj, _, err := ctx.loadProject(args[0])
			if err != nil {
				return err
			}
			if residual {
				strict := proj.Settings().StrictScript || cfg.Translation.StrictScriptCheck
				for _, idx := range proj.ResidualSourceScriptIndices(strict) {
					if err := proj.SetLineStatus(idx, project.StatusUnresolved); err != nil {
						return err
					}
				}
			}
			indices := proj.ResumableIndices()
			if len(indices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All lines are already translated")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resuming %d lines\n", len(indices))
			return runDispatch(cmd, ctx, cfg, runRequest{
				Project: proj,
				Mode:    history.ModeResume,
				Indices: indices,
				Serve:   serve,
			})
		},
	}

	cmd.Flags().BoolVar(&residual, "residual", false, "Also retranslate done lines that still contain source script")
	cmd.Flags().BoolVar(&serve, "serve", false, "Serve the status API while translating")
	return cmd
}
