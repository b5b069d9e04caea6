package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sublingo/internal/config"
	"sublingo/internal/project"
	"sublingo/internal/testsupport"
)

// syncBuffer is a thread-safe bytes.Buffer for commands running in a goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type cliTestEnv struct {
	cfg        *config.Config
	gemini     *testsupport.GeminiServer
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, reply testsupport.ReplyFunc) *cliTestEnv {
	t.Helper()

	gs := testsupport.NewGeminiServer(t, reply)
	cfg := testsupport.NewConfig(t, testsupport.WithEndpoint(gs.Endpoint()), testsupport.WithChunkSize(2))
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		gemini:     gs,
		configPath: configPath,
		baseDir:    base,
	}
}

func (e *cliTestEnv) writeSource(t *testing.T, lines ...string) string {
	t.Helper()
	return testsupport.WriteSRT(t, e.baseDir, "movie.srt", lines...)
}

func (e *cliTestEnv) projectPath(source string) string {
	return project.PathFor(e.cfg.Paths.ProjectDir, source)
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIContext(t, context.Background(), args, configPath)
}

func runCLIContext(t *testing.T, ctx context.Context, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
