package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sublingo/internal/api"
	"sublingo/internal/project"
)

var statusOrder = []project.Status{
	project.StatusDone,
	project.StatusPending,
	project.StatusInProgress,
	project.StatusFailed,
	project.StatusUnresolved,
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <project>",
		Short: "Show project progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, _, err := ctx.loadProject(args[0])
			if err != nil {
				return err
			}
			ready, readiness := proj.ExportReadiness()
			doc := proj.Snapshot()
			if jsonOutput {
				return writeJSON(cmd, api.FromDocument(doc, ready, readiness))
			}

			counts := make(map[project.Status]int, len(statusOrder))
			for i := 1; i < len(doc.Statuses); i++ {
				counts[doc.Statuses[i]]++
			}
			rows := make([][]string, 0, len(statusOrder))
			for _, status := range statusOrder {
				rows = append(rows, []string{string(status), strconv.Itoa(counts[status])})
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, proj.Summary())
			fmt.Fprintln(out, renderTable([]string{"Status", "Lines"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "Export ready: %s (%s)\n", yesNo(ready), readiness)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}
