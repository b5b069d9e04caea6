package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sublingo/internal/validate"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <project>",
		Short: "Report translated lines with residual source script or quality issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, _, err := ctx.loadProject(args[0])
			if err != nil {
				return err
			}
			strict = strict || proj.Settings().StrictScript

			original := proj.Original()
			translated := proj.Translated()
			var indices []int
			var originals, translations []string
			for i := 1; i < len(translated); i++ {
				if translated[i] == "" {
					continue
				}
				indices = append(indices, i)
				originals = append(originals, original.At(i))
				translations = append(translations, translated[i])
			}
			issues, err := validate.Quality{Strict: strict}.CheckBatch(originals, translations)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			residual := proj.ResidualSourceScriptIndices(strict)
			fmt.Fprintf(out, "Residual source script: %d lines\n", len(residual))
			if len(issues) == 0 {
				fmt.Fprintln(out, "No quality issues found")
				return nil
			}
			rows := make([][]string, 0, len(issues))
			for _, issue := range issues {
				idx := indices[issue.Index]
				rows = append(rows, []string{
					strconv.Itoa(idx),
					issue.Reason,
					truncate(original.At(idx), 30),
					truncate(translated[idx], 40),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Line", "Issue", "Original", "Translated"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Use the strict source-script check")
	return cmd
}
