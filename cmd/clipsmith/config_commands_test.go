package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipsmith/internal/testsupport"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	body := fmt.Sprintf(`[paths]
store_dir = %q
render_dir = %q
work_dir = %q
log_dir = %q
`,
		filepath.Join(base, "store"),
		filepath.Join(base, "renders"),
		filepath.Join(base, "work"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected output to mention %s, got %q", target, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error re-initializing without --overwrite")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsFile(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, "--config", configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "is valid") {
		t.Fatalf("unexpected validate output %q", out)
	}
}

func TestEditStartAndManifestShow(t *testing.T) {
	configPath := writeTestConfig(t)
	clip := testsupport.WriteClip(t, filepath.Join(t.TempDir(), "take02.mkv"))

	out, err := runCLI(t, "--config", configPath, "edit", "start", "take02", clip)
	if err != nil {
		t.Fatalf("edit start: %v", err)
	}
	if !strings.Contains(out, "take02") || !strings.Contains(out, "pending") {
		t.Fatalf("unexpected start output %q", out)
	}

	out, err = runCLI(t, "--config", configPath, "manifest", "show", "take02")
	if err != nil {
		t.Fatalf("manifest show: %v", err)
	}
	if !strings.Contains(out, "No variations yet.") {
		t.Fatalf("unexpected show output %q", out)
	}

	out, err = runCLI(t, "--config", configPath, "manifest", "path", "take02")
	if err != nil {
		t.Fatalf("manifest path: %v", err)
	}
	if strings.TrimSpace(out) != clip {
		t.Fatalf("expected source clip path, got %q", out)
	}
}
