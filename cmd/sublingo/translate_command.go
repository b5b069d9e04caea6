package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sublingo/internal/history"
	"sublingo/internal/logging"
	"sublingo/internal/project"
	"sublingo/internal/sanitize"
	"sublingo/internal/subtitles"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var projectPath string
	var chunkSize int
	var nameMapPath string
	var encoding string
	var allowGaps bool
	var serve bool

	cmd := &cobra.Command{
		Use:   "translate <file.srt>",
		Short: "Create a project from an SRT file and translate every line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.requireProviders()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			source, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}

			enc := encoding
			if strings.TrimSpace(enc) == "" {
				enc = cfg.Translation.InputEncoding
			}
			text, used, err := subtitles.ReadFile(source, enc)
			if err != nil {
				return err
			}
			doc, warnings := subtitles.Parse(text)
			for _, w := range warnings {
				logging.WarnWithContext(logger, "skipped subtitle block", "srt_block_skipped",
					logging.String("file", source),
					logging.Int("block", w.Block),
					logging.String("reason", w.Reason),
					logging.String(logging.FieldErrorHint, "fix the block in the source file to translate it"),
					logging.String(logging.FieldImpact, "the block is left out of the project"),
				)
			}
			if doc.Count() == 0 {
				return fmt.Errorf("%s contains no subtitle blocks", source)
			}
			if !subtitles.Validate(doc) && !allowGaps {
				return fmt.Errorf("%s is missing subtitle indices %v (use --allow-gaps to continue)", source, doc.Missing())
			}
			logger.Info("subtitles loaded",
				logging.String("file", source),
				logging.String("encoding", used),
				logging.Int("lines", doc.Count()),
			)

			lines := doc.Lines.Clone()
			if cfg.Translation.RemoveHTMLTags {
				for i := 1; i < len(lines); i++ {
					lines[i] = sanitize.RemoveHTMLTags(lines[i])
				}
			}

			mapPath := nameMapPath
			if strings.TrimSpace(mapPath) == "" {
				mapPath = cfg.Paths.NameMap
			}
			var names sanitize.NameMap
			if strings.TrimSpace(mapPath) != "" {
				names, err = sanitize.LoadNameMap(mapPath)
				if err != nil {
					return err
				}
			}

			size := cfg.Translation.ChunkSize
			if chunkSize > 0 {
				size = chunkSize
			}
			proj := project.New(source, doc.Times, lines, project.Settings{
				Model:          cfg.Translation.Model,
				ChunkSize:      size,
				Tone:           cfg.Translation.Tone,
				SourceLanguage: cfg.Translation.SourceLanguage,
				TargetLanguage: cfg.Translation.TargetLanguage,
				StrictScript:   cfg.Translation.StrictScriptCheck,
				NameMap:        names,
			})

			// Gaps have nothing to translate and must not block export.
			for _, idx := range doc.Missing() {
				if err := proj.SetLineStatus(idx, project.StatusDone); err != nil {
					return err
				}
			}

			target := strings.TrimSpace(projectPath)
			if target == "" {
				target = project.PathFor(cfg.Paths.ProjectDir, source)
			}
			if err := proj.Save(target); err != nil {
				return fmt.Errorf("save project: %w", err)
			}

			return runDispatch(cmd, ctx, cfg, runRequest{
				Project: proj,
				Mode:    history.ModeTranslate,
				Indices: presentIndices(doc),
				Serve:   serve,
			})
		},
	}

	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "Project file to create (default: project_dir/<name>.project.json)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Lines per request (default: translation.chunk_size)")
	cmd.Flags().StringVar(&nameMapPath, "name-map", "", "YAML or JSON name map (default: paths.name_map)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Input encoding (default: auto-detect)")
	cmd.Flags().BoolVar(&allowGaps, "allow-gaps", false, "Translate even when subtitle indices are missing")
	cmd.Flags().BoolVar(&serve, "serve", false, "Serve the status API while translating")
	return cmd
}

// presentIndices returns the indices that appeared in the source, or nil when
// the document has no gaps.
func presentIndices(doc subtitles.Document) []int {
	if len(doc.Missing()) == 0 {
		return nil
	}
	out := make([]int, 0, doc.Count())
	for i := 1; i < len(doc.Present); i++ {
		if doc.Present[i] {
			out = append(out, i)
		}
	}
	return out
}
