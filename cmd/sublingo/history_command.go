package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sublingo/internal/api"
	"sublingo/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool
	var markAbandoned bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recent translation runs or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if markAbandoned {
				n, err := store.MarkAbandoned(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Marked %d abandoned runs as failed\n", n)
			}
			if len(args) == 1 {
				return showRun(cmd, store, args[0], jsonOutput)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				resp := api.RunsResponse{Runs: make([]api.Run, 0, len(runs))}
				for _, r := range runs {
					resp.Runs = append(resp.Runs, api.FromRun(r))
				}
				return writeJSON(cmd, resp)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					shortID(r.ID),
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					string(r.Mode),
					string(r.Status),
					fmt.Sprintf("%d/%d", r.Succeeded, r.Total),
					formatRunDuration(r),
					truncate(r.ProjectPath, 40),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Started", "Mode", "Status", "Batches", "Duration", "Project"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Number of runs to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	cmd.Flags().BoolVar(&markAbandoned, "mark-abandoned", false, "Mark runs left in the running state as failed")
	return cmd
}

func showRun(cmd *cobra.Command, store *history.Store, id string, jsonOutput bool) error {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	results, err := store.BatchResults(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	usage, err := store.ProviderUsage(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, api.RunResponse{
			Run:           api.FromRun(*run),
			Batches:       api.FromBatchResults(results),
			ProviderUsage: usage,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "Project: %s\n", run.ProjectPath)
	if run.SourceFile != "" {
		fmt.Fprintf(out, "Source: %s\n", run.SourceFile)
	}
	fmt.Fprintf(out, "Mode: %s\n", run.Mode)
	fmt.Fprintf(out, "Status: %s\n", run.Status)
	fmt.Fprintf(out, "Started: %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Duration: %s\n", formatRunDuration(*run))
	fmt.Fprintf(out, "Batches: %d succeeded, %d failed of %d\n", run.Succeeded, run.Failed, run.Total)
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", run.Error)
	}
	if len(usage) > 0 {
		names := make([]string, 0, len(usage))
		for name := range usage {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(out, "Provider usage:")
		for _, name := range names {
			fmt.Fprintf(out, "  - %s: %d\n", name, usage[name])
		}
	}
	if len(results) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		outcome := "ok"
		if !r.Success {
			outcome = r.ErrorKind
			if outcome == "" {
				outcome = "failed"
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d-%d", r.Start, r.End),
			outcome,
			r.Provider,
			strconv.Itoa(r.Attempts),
			r.Duration.Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Range", "Result", "Provider", "Attempts", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	return nil
}

func formatRunDuration(r history.Run) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.Duration().Round(time.Second).String()
}
