package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidatePing(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"config", "validate", "--ping"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate --ping: %v", err)
	}
	requireContains(t, out, "Primary-1")
	requireContains(t, out, "ok")
	if env.gemini.Calls() != 1 {
		t.Fatalf("expected one health check call, got %d", env.gemini.Calls())
	}
}

func TestConfigShow(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Chunk size: 2")
	requireContains(t, out, "Primary-1")
	requireContains(t, out, "set")
	requireContains(t, out, env.cfg.Paths.ProjectDir)
}
