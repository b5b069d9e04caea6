package project_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"sublingo/internal/batcher"
	"sublingo/internal/project"
	"sublingo/internal/sanitize"
	"sublingo/internal/services"
	"sublingo/internal/subtitles"
)

func newProject(t *testing.T, lines ...string) *project.Project {
	t.Helper()
	times := make([]string, len(lines))
	for i := range times {
		times[i] = "00:00:01,000 --> 00:00:02,000"
	}
	return project.New(filepath.Join(t.TempDir(), "movie.srt"), subtitles.FromSlice(times), subtitles.FromSlice(lines), project.Settings{
		Model:     "gemini-2.5-flash",
		ChunkSize: 2,
		Tone:      "conversational",
		NameMap:   sanitize.NewNameMap(sanitize.Pair{Source: "吕布", Target: "Lữ Bố"}),
	})
}

func TestNewStartsPending(t *testing.T) {
	p := newProject(t, "一", "二", "三")
	doc := p.Snapshot()
	if doc.Statuses[0] != "" {
		t.Fatalf("index 0 status = %q", doc.Statuses[0])
	}
	for i := 1; i <= 3; i++ {
		if doc.Statuses[i] != project.StatusPending {
			t.Fatalf("status[%d] = %q", i, doc.Statuses[i])
		}
	}
	if got := p.UnresolvedIndices(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("UnresolvedIndices = %v", got)
	}
	if doc.TotalLines != 3 || doc.Version != project.FormatVersion {
		t.Fatalf("unexpected document header %+v", doc)
	}
}

func TestApplyBatchResult(t *testing.T) {
	p := newProject(t, "一", "二", "三", "四")
	p.MarkInProgress(batcher.Batch{Start: 1, End: 2})
	if got := p.ResumableIndices(); !reflect.DeepEqual(got, []int{1, 2, 3, 4}) {
		t.Fatalf("ResumableIndices = %v", got)
	}
	if got := p.UnresolvedIndices(); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Fatalf("UnresolvedIndices = %v", got)
	}

	p.ApplyBatchResult(batcher.Batch{Start: 1, End: 2}, []string{"Một", "Hai", "thừa"}, true)
	p.ApplyBatchResult(batcher.Batch{Start: 3, End: 4}, []string{"三", "四"}, false)

	doc := p.Snapshot()
	if doc.Translated[2] != "Hai" || doc.Statuses[2] != project.StatusDone {
		t.Fatalf("line 2 = %q/%q", doc.Translated[2], doc.Statuses[2])
	}
	if doc.Translated[3] != "三" || doc.Statuses[3] != project.StatusFailed {
		t.Fatalf("line 3 = %q/%q", doc.Translated[3], doc.Statuses[3])
	}
	if doc.CompletedLines != 2 || doc.FailedLines != 2 {
		t.Fatalf("counters = %d/%d", doc.CompletedLines, doc.FailedLines)
	}
	completed, total, pct := p.Progress()
	if completed != 2 || total != 4 || pct != 50 {
		t.Fatalf("Progress = %d %d %v", completed, total, pct)
	}

	// Reapplying a batch must not inflate the counters.
	p.ApplyBatchResult(batcher.Batch{Start: 1, End: 2}, []string{"Một", "Hai"}, true)
	if doc := p.Snapshot(); doc.CompletedLines != 2 {
		t.Fatalf("completed after reapply = %d", doc.CompletedLines)
	}
}

func TestManualEditsAndStatus(t *testing.T) {
	p := newProject(t, "一", "二")
	if err := p.SetLineTranslation(2, "Hai"); err != nil {
		t.Fatalf("SetLineTranslation: %v", err)
	}
	if line, _ := p.Line(2); line.Status != project.StatusDone || line.Translated != "Hai" {
		t.Fatalf("line 2 = %+v", line)
	}
	if err := p.SetLineStatus(2, project.StatusUnresolved); err != nil {
		t.Fatalf("SetLineStatus: %v", err)
	}
	if got := p.UnresolvedIndices(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("UnresolvedIndices = %v", got)
	}
	if err := p.SetLineTranslation(3, "x"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := p.SetLineStatus(1, "finished"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExportReadiness(t *testing.T) {
	p := newProject(t, "一", "二")
	if ok, msg := p.ExportReadiness(); ok || msg != "2 lines are unresolved" {
		t.Fatalf("ExportReadiness = %v %q", ok, msg)
	}
	p.ApplyBatchResult(batcher.Batch{Start: 1, End: 2}, []string{"Một", "Hai 二"}, true)
	if got := p.ResidualSourceScriptIndices(false); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("ResidualSourceScriptIndices = %v", got)
	}
	if ok, msg := p.ExportReadiness(); ok || msg != "1 lines still contain Chinese" {
		t.Fatalf("ExportReadiness = %v %q", ok, msg)
	}
	if err := p.SetLineTranslation(2, "Hai"); err != nil {
		t.Fatal(err)
	}
	if ok, msg := p.ExportReadiness(); !ok || msg != "Ready for export" {
		t.Fatalf("ExportReadiness = %v %q", ok, msg)
	}

	text, err := p.ExportText()
	if err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	want := "1\n00:00:01,000 --> 00:00:02,000\nMột\n\n2\n00:00:01,000 --> 00:00:02,000\nHai\n"
	if text != want {
		t.Fatalf("ExportText = %q", text)
	}
}

func TestExportTextSkipsEmptyDoneLines(t *testing.T) {
	p := newProject(t, "你好", "嗯", "再见")
	p.ApplyBatchResult(batcher.Batch{Start: 1, End: 2}, []string{"Xin chào", ""}, true)
	if err := p.SetLineStatus(3, project.StatusDone); err != nil {
		t.Fatal(err)
	}
	if err := p.SetLineStatus(3, project.StatusFailed); err != nil {
		t.Fatal(err)
	}

	text, err := p.ExportText()
	if err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	if strings.Contains(text, "嗯") {
		t.Fatalf("empty done line exported its original text: %q", text)
	}
	want := "1\n00:00:01,000 --> 00:00:02,000\nXin chào\n\n3\n00:00:01,000 --> 00:00:02,000\n再见\n"
	if text != want {
		t.Fatalf("ExportText = %q, want %q", text, want)
	}
}

func TestSummary(t *testing.T) {
	p := newProject(t, "一", "二")
	p.ApplyBatchResult(batcher.Batch{Start: 1, End: 1}, []string{"Một"}, true)
	summary := p.Summary()
	for _, want := range []string{
		"- File: movie.srt\n",
		"- Total Lines: 2\n",
		"- Completed: 1 (50.0%)\n",
		"- Unresolved: 1\n",
		"- Still Chinese: 0\n",
		"- Model: gemini-2.5-flash\n",
	} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := newProject(t, "吕布来了", "<b>二</b>")
	p.ApplyBatchResult(batcher.Batch{Start: 1, End: 1}, []string{"Lữ Bố đến rồi"}, true)
	p.MarkInProgress(batcher.Batch{Start: 2, End: 2})

	path := filepath.Join(t.TempDir(), "projects", "movie.project.json")
	if err := p.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "吕布来了") || !strings.Contains(string(data), "<b>二</b>") {
		t.Fatalf("expected unescaped text in saved file:\n%s", data)
	}
	if !strings.Contains(string(data), `"name_map": {`) {
		t.Fatalf("expected name map object:\n%s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	loaded, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	before, after := p.Snapshot(), loaded.Snapshot()
	if !before.Modified.Equal(after.Modified) {
		t.Fatalf("modified time changed: %v vs %v", before.Modified, after.Modified)
	}
	before.Created, after.Created = before.Created.UTC(), after.Created.UTC()
	before.Modified = after.Modified
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", before, after)
	}
	if got := loaded.ResumableIndices(); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("ResumableIndices after load = %v", got)
	}
	if loaded.Path() != path {
		t.Fatalf("Path = %q", loaded.Path())
	}

	if err := loaded.SetLineTranslation(2, "Hai"); err != nil {
		t.Fatal(err)
	}
	if err := loaded.AutoSave(); err != nil {
		t.Fatalf("AutoSave: %v", err)
	}
	reloaded, err := project.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if line, _ := reloaded.Line(2); line.Translated != "Hai" {
		t.Fatalf("autosaved line = %+v", line)
	}
}

func TestAutoSaveWithoutPath(t *testing.T) {
	p := newProject(t, "一")
	if err := p.AutoSave(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := project.Load(filepath.Join(dir, "missing.json")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"times":["",""],"subs_original":["","a"],"subs_translated":[""],"statuses":["",""]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := project.Load(bad); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadAcceptsNullEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	body := `{"version":"1.0","times":[null,"00:00:01,000 --> 00:00:02,000"],"subs_original":[null,"一"],` +
		`"subs_translated":[null,null],"statuses":["","pending"],"model":"m","chunk_size":10,"tone":"","name_map":{}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := p.UnresolvedIndices(); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("UnresolvedIndices = %v", got)
	}
}

func TestPathFor(t *testing.T) {
	if got := project.PathFor("/tmp/projects", "/media/Movie.zh.srt"); got != "/tmp/projects/Movie.zh.project.json" {
		t.Fatalf("PathFor = %q", got)
	}
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	p := newProject(t, "一", "二", "三", "四")
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			p.ApplyBatchResult(batcher.Batch{Start: 1, End: 4}, []string{"a", "b", "c", "d"}, i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = p.Snapshot()
			_, _, _ = p.Progress()
		}
	}()
	wg.Wait()
}
