package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"sublingo/internal/api"
	"sublingo/internal/project"
	"sublingo/internal/testsupport"
)

func TestTranslateStatusExportHistory(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	source := env.writeSource(t, testsupport.ChineseLines(3)...)

	out, _, err := runCLI(t, []string{"translate", source}, env.configPath)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	requireContains(t, out, "Translating chunk 1-2...")
	requireContains(t, out, "✓ Chunk 1-2 (Primary-1)")
	requireContains(t, out, "✓ Chunk 3-3 (Primary-1)")
	requireContains(t, out, "- Successful: 2")
	requireContains(t, out, "Export: Ready for export")
	if env.gemini.Calls() != 2 {
		t.Fatalf("expected 2 provider calls, got %d", env.gemini.Calls())
	}

	projectPath := env.projectPath(source)
	p, err := project.Load(projectPath)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	if got := p.Translated().At(3); got != "Dòng 3" {
		t.Fatalf("line 3 = %q", got)
	}

	out, _, err = runCLI(t, []string{"status", projectPath}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "- Completed: 3 (100.0%)")
	requireContains(t, out, "Export ready: yes")

	out, _, err = runCLI(t, []string{"status", "--json", filepath.Base(projectPath)}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var resp api.ProjectResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode status json: %v", err)
	}
	if resp.TotalLines != 3 || resp.CompletedLines != 3 || !resp.ExportReady {
		t.Fatalf("unexpected status payload: %+v", resp)
	}

	target := filepath.Join(env.baseDir, "out.srt")
	out, _, err = runCLI(t, []string{"export", projectPath, "-o", target}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "Exported "+target)
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:00,900\nDòng 1\n"
	if !strings.HasPrefix(string(data), want) {
		t.Fatalf("export starts with %q, want prefix %q", string(data), want)
	}
	if _, _, err := runCLI(t, []string{"export", projectPath, "-o", target}, env.configPath); err == nil {
		t.Fatal("expected export to refuse an existing file")
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "translate")
	requireContains(t, out, "completed")
	requireContains(t, out, "2/2")

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var runs api.RunsResponse
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history json: %v", err)
	}
	if len(runs.Runs) != 1 || runs.Runs[0].Succeeded != 2 {
		t.Fatalf("unexpected runs: %+v", runs.Runs)
	}

	out, _, err = runCLI(t, []string{"history", runs.Runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history <id>: %v", err)
	}
	requireContains(t, out, "Run "+runs.Runs[0].ID)
	requireContains(t, out, "Primary-1: 2")
	requireContains(t, out, "3-3")
}

func TestTranslateFailureThenResume(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	env := setupCLITestEnv(t, func(_ context.Context, _ int, userPrompt string) (string, error) {
		if failing.Load() {
			return "", errors.New("quota exhausted")
		}
		return testsupport.TranslateReply(userPrompt), nil
	})
	source := env.writeSource(t, testsupport.ChineseLines(4)...)

	out, _, err := runCLI(t, []string{"translate", source}, env.configPath)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	requireContains(t, out, "✗ Chunk 1-2 (failed)")
	requireContains(t, out, "- Failed: 2")
	requireContains(t, out, "Export: 4 lines are unresolved")

	projectPath := env.projectPath(source)
	p, err := project.Load(projectPath)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	if got := p.Translated().At(1); got != "第1句台词" {
		t.Fatalf("failed batch should keep original text, got %q", got)
	}
	if line, _ := p.Line(2); line.Status != project.StatusFailed {
		t.Fatalf("line 2 status = %s", line.Status)
	}

	if _, _, err := runCLI(t, []string{"export", projectPath, "-o", filepath.Join(env.baseDir, "x.srt")}, env.configPath); err == nil {
		t.Fatal("expected export to refuse an unresolved project")
	}

	failing.Store(false)
	out, _, err = runCLI(t, []string{"resume", projectPath}, env.configPath)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	requireContains(t, out, "Resuming 4 lines")
	requireContains(t, out, "- Successful: 2")
	requireContains(t, out, "Export: Ready for export")

	out, _, err = runCLI(t, []string{"resume", projectPath}, env.configPath)
	if err != nil {
		t.Fatalf("second resume: %v", err)
	}
	requireContains(t, out, "All lines are already translated")

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "resume")
	requireContains(t, out, "0/2")
}

func TestTranslateRejectsGapsUnlessAllowed(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	source := filepath.Join(env.baseDir, "gaps.srt")
	content := "1\n00:00:01,000 --> 00:00:02,000\n第一句\n\n3\n00:00:03,000 --> 00:00:04,000\n第三句\n"
	if err := os.WriteFile(source, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	_, _, err := runCLI(t, []string{"translate", source}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--allow-gaps") {
		t.Fatalf("expected gap error, got %v", err)
	}

	out, _, err := runCLI(t, []string{"translate", "--allow-gaps", source}, env.configPath)
	if err != nil {
		t.Fatalf("translate --allow-gaps: %v", err)
	}
	requireContains(t, out, "✓ Chunk 1-1 (Primary-1)")
	requireContains(t, out, "✓ Chunk 3-3 (Primary-1)")
	requireContains(t, out, "Export: Ready for export")
}

func TestTranslateRequiresProviders(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	cfg := *env.cfg
	cfg.Providers = nil
	writeTestConfig(t, env.configPath, &cfg)
	source := env.writeSource(t, testsupport.ChineseLines(1)...)

	if _, _, err := runCLI(t, []string{"translate", source}, env.configPath); err == nil {
		t.Fatal("expected translate to fail without providers")
	}
	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show without providers: %v", err)
	}
	requireContains(t, out, "No providers configured")
}
