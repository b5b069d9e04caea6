package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sublingo/internal/language"
	"sublingo/internal/subtitles"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string
	var force bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Write the translated subtitles to an SRT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, _, err := ctx.loadProject(args[0])
			if err != nil {
				return err
			}
			ready, readiness := proj.ExportReadiness()
			if !ready && !force {
				return fmt.Errorf("project not ready for export: %s (use --force to export anyway)", readiness)
			}

			target := strings.TrimSpace(output)
			if target == "" {
				target = defaultExportPath(proj.SourceFile(), proj.Settings().TargetLanguage)
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("%s already exists (use --overwrite to replace it)", target)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check output path: %w", err)
				}
			}

			text, err := proj.ExportText()
			if err != nil {
				return err
			}
			if err := subtitles.WriteFile(target, text); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ready {
				fmt.Fprintf(out, "Warning: %s\n", readiness)
			}
			fmt.Fprintf(out, "Exported %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output SRT path (default: next to the source as <name>.<lang>.srt)")
	cmd.Flags().BoolVar(&force, "force", false, "Export even when lines are unresolved or still contain source script")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing output file")
	return cmd
}

func defaultExportPath(source, target string) string {
	lang := language.Base(target)
	if lang == "" {
		lang = "translated"
	}
	ext := filepath.Ext(source)
	return strings.TrimSuffix(source, ext) + "." + lang + ".srt"
}
