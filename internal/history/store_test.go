package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"sublingo/internal/batcher"
	"sublingo/internal/dispatch"
	"sublingo/internal/history"
	"sublingo/internal/logging"
	"sublingo/internal/services"
	"sublingo/internal/testsupport"
)

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	run, err := store.StartRun(ctx, "/tmp/movie.project.json", "/tmp/movie.srt", history.ModeTranslate)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if len(run.ID) != 36 || run.Status != history.RunRunning {
		t.Fatalf("unexpected run %+v", run)
	}

	for _, r := range []history.BatchResult{
		{RunID: run.ID, Start: 1, End: 10, Success: true, Provider: "Primary-1", Attempts: 1, Duration: 1500 * time.Millisecond},
		{RunID: run.ID, Start: 11, End: 20, Success: true, Provider: "Fallback-1", Attempts: 2, Duration: time.Second},
		{RunID: run.ID, Start: 21, End: 25, Attempts: 4, ErrorKind: "transport", Error: "all translation attempts failed"},
	} {
		if err := store.RecordBatch(ctx, r); err != nil {
			t.Fatalf("RecordBatch: %v", err)
		}
	}
	if err := store.FinishRun(ctx, run.ID, history.RunCompleted, history.Totals{Total: 3, Succeeded: 2, Failed: 1}, nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID[:8])
	if err != nil {
		t.Fatalf("GetRun by prefix: %v", err)
	}
	if got.Status != history.RunCompleted || got.Total != 3 || got.Failed != 1 || got.FinishedAt == nil {
		t.Fatalf("unexpected stored run %+v", got)
	}
	if got.SourceFile != "/tmp/movie.srt" || got.Mode != history.ModeTranslate {
		t.Fatalf("unexpected run fields %+v", got)
	}

	batches, err := store.BatchResults(ctx, run.ID)
	if err != nil {
		t.Fatalf("BatchResults: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batch results, got %d", len(batches))
	}
	if batches[0].Duration != 1500*time.Millisecond || batches[2].Success || batches[2].ErrorKind != "transport" {
		t.Fatalf("unexpected batch results %+v", batches)
	}

	usage, err := store.ProviderUsage(ctx, run.ID)
	if err != nil {
		t.Fatalf("ProviderUsage: %v", err)
	}
	if usage["Primary-1"] != 1 || usage["Fallback-1"] != 1 || len(usage) != 2 {
		t.Fatalf("unexpected usage %v", usage)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := store.StartRun(ctx, "p.json", "", history.ModeResume)
		if err != nil {
			t.Fatalf("StartRun: %v", err)
		}
		ids = append(ids, run.ID)
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("unexpected order: %+v", runs)
	}

	n, err := store.MarkAbandoned(ctx)
	if err != nil {
		t.Fatalf("MarkAbandoned: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 abandoned runs, got %d", n)
	}
}

func TestGetRunAndFinishRunNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	if _, err := store.GetRun(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.FinishRun(ctx, "missing", history.RunFailed, history.Totals{}, errors.New("boom")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	run, err := store.StartRun(context.Background(), "p.json", "", history.ModeTranslate)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := testsupport.MustOpenHistory(t, cfg)
	if _, err := reopened.GetRun(context.Background(), run.ID); err != nil {
		t.Fatalf("GetRun after reopen: %v", err)
	}
}

func TestRecorderWritesResolvedEvents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	run, err := store.StartRun(ctx, "p.json", "", history.ModeTranslate)
	if err != nil {
		t.Fatal(err)
	}

	rec := history.NewRecorder(store, run.ID, logging.NewNop())
	b := batcher.Batch{Start: 1, End: 2, Lines: []string{"一", "二"}}
	rec.Progress(dispatch.Event{Phase: dispatch.PhaseStarted, Range: b.Range()})
	rec.Progress(dispatch.Event{Phase: dispatch.PhaseResolved, Result: &dispatch.Result{
		Batch:    b,
		Err:      services.Wrap(services.ErrTimeout, "dispatch", "race", "too slow", nil),
		Attempts: 2,
	}})

	batches, err := store.BatchResults(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected one recorded batch, got %d", len(batches))
	}
	if batches[0].ErrorKind != "timeout" || batches[0].Attempts != 2 || batches[0].End != 2 {
		t.Fatalf("unexpected recorded batch %+v", batches[0])
	}
}
