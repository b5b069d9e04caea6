package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"sublingo/internal/api"
	"sublingo/internal/batcher"
	"sublingo/internal/config"
	"sublingo/internal/dispatch"
	"sublingo/internal/history"
	"sublingo/internal/language"
	"sublingo/internal/logging"
	"sublingo/internal/project"
	"sublingo/internal/services"
)

// runRequest describes one dispatch run over a loaded project.
type runRequest struct {
	Project *project.Project
	Mode    history.Mode
	// Indices limits the run to these lines; nil means every line.
	Indices []int
	Serve   bool
}

// progressPrinter echoes dispatch events and autosaves the project after each
// resolved batch.
type progressPrinter struct {
	out     io.Writer
	logger  *slog.Logger
	project *project.Project
	sampler *logging.ProgressSampler
}

func (p *progressPrinter) Progress(e dispatch.Event) {
	fmt.Fprintln(p.out, e.Message)
	if e.Phase != dispatch.PhaseResolved {
		return
	}
	if err := p.project.AutoSave(); err != nil {
		logging.WarnWithContext(p.logger, "autosave failed", "project_autosave_failed",
			logging.String("project", p.project.Path()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the project directory is writable"),
			logging.String(logging.FieldImpact, "progress since the last save may be lost on interruption"),
		)
	}
	if p.sampler.ShouldLog(e.Percent()) {
		p.logger.Info("translation progress",
			logging.Int("completed", e.Completed),
			logging.Int("total", e.Total),
			logging.Float64("percent", e.Percent()),
		)
	}
}

type observers []dispatch.Observer

func (o observers) Progress(e dispatch.Event) {
	for _, obs := range o {
		obs.Progress(e)
	}
}

func promptFor(settings project.Settings) dispatch.Prompt {
	prompt := dispatch.Prompt{Tone: settings.Tone, NameMap: settings.NameMap}
	if settings.SourceLanguage != "" {
		prompt.SourceLanguage = language.DisplayName(settings.SourceLanguage)
	}
	if settings.TargetLanguage != "" {
		prompt.TargetLanguage = language.DisplayName(settings.TargetLanguage)
	}
	return prompt
}

// runDispatch batches the requested lines, runs them through the provider
// hierarchy, records history and saves the project.
func runDispatch(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, req runRequest) error {
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	proj := req.Project
	settings := proj.Settings()
	chunkSize := settings.ChunkSize
	if chunkSize < 1 {
		chunkSize = cfg.Translation.ChunkSize
	}

	var batches []batcher.Batch
	if req.Indices == nil {
		batches, err = batcher.Split(proj.Original(), chunkSize)
	} else {
		batches, err = batcher.SplitIndices(proj.Original(), req.Indices, chunkSize)
	}
	if err != nil {
		return fmt.Errorf("split batches: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(batches) == 0 {
		fmt.Fprintln(out, "Nothing to translate")
		return nil
	}

	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	runCtx := cmd.Context()
	run, err := store.StartRun(runCtx, proj.Path(), proj.SourceFile(), req.Mode)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	runCtx = services.WithRunID(runCtx, run.ID)
	runLogger := logging.WithContext(runCtx, logger)

	tracker := api.NewTracker(run.ID)
	observer := observers{
		&progressPrinter{out: out, logger: runLogger, project: proj, sampler: logging.NewProgressSampler(10)},
		history.NewRecorder(store, run.ID, runLogger),
		tracker,
	}

	if req.Serve {
		server := api.NewServer(cfg.Paths.APIBind, api.Options{Project: proj, Runs: store, Tracker: tracker, Logger: runLogger})
		if err := server.Start(runCtx); err != nil {
			return fmt.Errorf("start status api: %w", err)
		}
		defer server.Stop()
		fmt.Fprintf(out, "Status API listening on http://%s/api\n", server.Addr())
	}

	d, err := dispatch.NewFromConfig(cfg, dispatch.Options{
		Prompt:   promptFor(settings),
		Sink:     proj,
		Observer: observer,
	}, runLogger)
	if err != nil {
		_ = store.FinishRun(context.Background(), run.ID, history.RunFailed, history.Totals{}, err)
		return err
	}

	runLogger.Info("translation run started",
		logging.String("project", proj.Path()),
		logging.String("mode", string(req.Mode)),
		logging.Int("batches", len(batches)),
		logging.Int("chunk_size", chunkSize),
	)
	report, runErr := d.Run(runCtx, batches)

	saveErr := proj.AutoSave()
	status := history.RunCompleted
	if runErr != nil {
		status = history.RunCancelled
		if !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
			status = history.RunFailed
		}
	}
	totals := history.Totals{
		Total:     len(batches),
		Succeeded: report.Stats.Succeeded,
		Failed:    report.Stats.Failed,
	}
	if err := store.FinishRun(context.Background(), run.ID, status, totals, runErr); err != nil {
		logging.WarnWithContext(runLogger, "finish run failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the history database is writable"),
			logging.String(logging.FieldImpact, "the run will stay marked as running"),
		)
	}
	runLogger.Info("translation run finished",
		logging.String("status", string(status)),
		logging.Int("succeeded", report.Stats.Succeeded),
		logging.Int("failed", report.Stats.Failed),
		logging.Duration("elapsed", report.Stats.Elapsed.Round(time.Millisecond)),
	)

	fmt.Fprintln(out)
	fmt.Fprint(out, report.Stats.Summary())
	_, readiness := proj.ExportReadiness()
	fmt.Fprintf(out, "Project: %s\n", proj.Path())
	fmt.Fprintf(out, "Export: %s\n", readiness)
	fmt.Fprintf(out, "Run: %s\n", run.ID)

	if runErr != nil {
		return runErr
	}
	if saveErr != nil {
		return fmt.Errorf("save project: %w", saveErr)
	}
	return nil
}
