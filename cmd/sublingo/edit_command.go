package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sublingo/internal/project"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "edit <project> <index> [text]",
		Short: "Set the translation or status of one line",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("invalid line index %q", args[1])
			}
			if len(args) < 3 && strings.TrimSpace(statusFlag) == "" {
				return fmt.Errorf("provide replacement text or --status")
			}
			proj, path, err := ctx.loadProject(args[0])
			if err != nil {
				return err
			}
			if len(args) == 3 {
				if err := proj.SetLineTranslation(idx, args[2]); err != nil {
					return err
				}
			}
			if strings.TrimSpace(statusFlag) != "" {
				status, err := project.ParseStatus(statusFlag)
				if err != nil {
					return err
				}
				if err := proj.SetLineStatus(idx, status); err != nil {
					return err
				}
			}
			if err := proj.Save(path); err != nil {
				return fmt.Errorf("save project: %w", err)
			}
			line, err := proj.Line(idx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Line %d [%s]: %s\n", line.Index, line.Status, line.Translated)
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Override the line status (pending, in-progress, done, failed, unresolved)")
	return cmd
}
