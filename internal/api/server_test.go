package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"sublingo/internal/api"
	"sublingo/internal/batcher"
	"sublingo/internal/dispatch"
	"sublingo/internal/history"
	"sublingo/internal/logging"
	"sublingo/internal/project"
	"sublingo/internal/sanitize"
	"sublingo/internal/subtitles"
	"sublingo/internal/testsupport"
)

func newTestProject(t *testing.T) *project.Project {
	t.Helper()
	lines := testsupport.ChineseLines(4)
	times := make([]string, len(lines))
	for i := range times {
		times[i] = "00:00:01,000 --> 00:00:02,000"
	}
	p := project.New(filepath.Join(t.TempDir(), "movie.srt"), subtitles.FromSlice(times), subtitles.FromSlice(lines), project.Settings{
		Model:     "gemini-2.5-flash",
		ChunkSize: 2,
		Tone:      "conversational",
		NameMap:   sanitize.NewNameMap(sanitize.Pair{Source: "吕布", Target: "Lữ Bố"}),
	})
	p.ApplyBatchResult(batcher.Batch{Start: 1, End: 2}, []string{"Dòng 1", "Dòng 2 第"}, true)
	p.ApplyBatchResult(batcher.Batch{Start: 3, End: 3}, []string{"第3句台词"}, false)
	return p
}

func getJSON(t *testing.T, srv *httptest.Server, path string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", path, resp.StatusCode, wantStatus)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("GET %s: content type %q", path, ct)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
}

func TestProjectEndpoints(t *testing.T) {
	p := newTestProject(t)
	tracker := api.NewTracker("run-1")
	server := api.NewServer("127.0.0.1:0", api.Options{Project: p, Tracker: tracker, Logger: logging.NewNop()})
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	var health map[string]string
	getJSON(t, srv, "/api/health", http.StatusOK, &health)
	if health["status"] != "ok" {
		t.Fatalf("health = %v", health)
	}

	var proj api.ProjectResponse
	getJSON(t, srv, "/api/project", http.StatusOK, &proj)
	if proj.TotalLines != 4 || proj.CompletedLines != 2 || proj.FailedLines != 1 {
		t.Fatalf("unexpected project counters %+v", proj)
	}
	if proj.StatusCounts["pending"] != 1 || proj.StatusCounts["failed"] != 1 || proj.StatusCounts["done"] != 2 {
		t.Fatalf("unexpected status counts %v", proj.StatusCounts)
	}
	if proj.ExportReady || proj.Readiness != "2 lines are unresolved" {
		t.Fatalf("unexpected readiness %v %q", proj.ExportReady, proj.Readiness)
	}
	if proj.Settings.NameMap["吕布"] != "Lữ Bố" || proj.Settings.ChunkSize != 2 {
		t.Fatalf("unexpected settings %+v", proj.Settings)
	}

	var progress api.ProgressResponse
	getJSON(t, srv, "/api/progress", http.StatusOK, &progress)
	if progress.Completed != 2 || progress.Total != 4 || progress.Percent != 50 || progress.Run != nil {
		t.Fatalf("unexpected progress %+v", progress)
	}

	tracker.Progress(dispatch.Event{Phase: dispatch.PhaseResolved, Completed: 1, Total: 2, Message: "✗ Chunk 3-3 (failed)", Range: batcher.Range{Start: 3, End: 3}})
	getJSON(t, srv, "/api/progress", http.StatusOK, &progress)
	if progress.Run == nil || progress.Run.RunID != "run-1" || progress.Run.Percent != 50 || !progress.Run.LastBatchFailed || progress.Run.Range != "3-3" {
		t.Fatalf("unexpected run status %+v", progress.Run)
	}

	var unresolved api.LinesResponse
	getJSON(t, srv, "/api/unresolved", http.StatusOK, &unresolved)
	if unresolved.Count != 2 || unresolved.Lines[0].Index != 3 || unresolved.Lines[1].Status != "pending" {
		t.Fatalf("unexpected unresolved %+v", unresolved)
	}
	getJSON(t, srv, "/api/unresolved?limit=1", http.StatusOK, &unresolved)
	if unresolved.Count != 1 {
		t.Fatalf("limit not applied: %+v", unresolved)
	}

	var residual api.LinesResponse
	getJSON(t, srv, "/api/residual", http.StatusOK, &residual)
	if residual.Count != 2 || residual.Lines[0].Index != 2 || residual.Lines[1].Index != 3 {
		t.Fatalf("unexpected residual %+v", residual)
	}

	var line api.Line
	getJSON(t, srv, "/api/lines/1", http.StatusOK, &line)
	if line.Translated != "Dòng 1" || line.Status != "done" {
		t.Fatalf("unexpected line %+v", line)
	}
	getJSON(t, srv, "/api/lines/99", http.StatusNotFound, nil)
	getJSON(t, srv, "/api/lines/abc", http.StatusBadRequest, nil)
	getJSON(t, srv, "/api/nothing", http.StatusNotFound, nil)
}

func TestEndpointsWithoutSources(t *testing.T) {
	server := api.NewServer("127.0.0.1:0", api.Options{Logger: logging.NewNop()})
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	getJSON(t, srv, "/api/project", http.StatusNotFound, nil)
	var runs api.RunsResponse
	getJSON(t, srv, "/api/runs", http.StatusOK, &runs)
	if runs.Runs == nil || len(runs.Runs) != 0 {
		t.Fatalf("expected empty run list, got %+v", runs)
	}
	getJSON(t, srv, "/api/runs/abc", http.StatusNotFound, nil)
}

func TestRunEndpoints(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	run, err := store.StartRun(ctx, "movie.project.json", "movie.srt", history.ModeTranslate)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.RecordBatch(ctx, history.BatchResult{RunID: run.ID, Start: 1, End: 2, Success: true, Provider: "Primary-1", Attempts: 1, Duration: 2 * time.Second}); err != nil {
		t.Fatal(err)
	}
	if err := store.FinishRun(ctx, run.ID, history.RunCompleted, history.Totals{Total: 1, Succeeded: 1}, nil); err != nil {
		t.Fatal(err)
	}

	server := api.NewServer("127.0.0.1:0", api.Options{Runs: store, Logger: logging.NewNop()})
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	var runs api.RunsResponse
	getJSON(t, srv, "/api/runs", http.StatusOK, &runs)
	if len(runs.Runs) != 1 || runs.Runs[0].ID != run.ID || runs.Runs[0].Status != "completed" {
		t.Fatalf("unexpected runs %+v", runs)
	}

	var detail api.RunResponse
	getJSON(t, srv, "/api/runs/"+run.ID, http.StatusOK, &detail)
	if len(detail.Batches) != 1 || detail.Batches[0].Range != "1-2" || detail.Batches[0].DurationMS != 2000 {
		t.Fatalf("unexpected batches %+v", detail.Batches)
	}
	if detail.ProviderUsage["Primary-1"] != 1 {
		t.Fatalf("unexpected usage %v", detail.ProviderUsage)
	}
	getJSON(t, srv, "/api/runs/ffffffff", http.StatusNotFound, nil)
}

func TestServerStartAndStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := api.NewServer("127.0.0.1:0", api.Options{Logger: logging.NewNop()})
	if err := server.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := http.Get("http://" + server.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", resp.StatusCode)
	}
	cancel()
	server.Stop()
}
