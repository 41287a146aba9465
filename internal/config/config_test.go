package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points every config lookup at empty temp locations.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	for _, k := range []string{"TADA_CONFIG", "TADA_BACKEND", "TADA_DATA_DIR", "TADA_THEME", "TADA_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func load(t *testing.T, args ...string) (*Config, []string, error) {
	t.Helper()
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))
	return Load(fs, args)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg, rest, err := load(t, "add", "Buy", "milk")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend != DefaultBackend || cfg.DataDir != DefaultDataDir || cfg.Theme != DefaultTheme || cfg.LogLevel != DefaultLogLevel {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.LogFile != filepath.Join(DefaultDataDir, "tada.log") {
		t.Errorf("LogFile = %s", cfg.LogFile)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want none", cfg.File)
	}
	if strings.Join(rest, " ") != "add Buy milk" {
		t.Errorf("rest = %v", rest)
	}
}

func TestPriorityOrder(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "xdg", "tada", "config.toml"), `
backend = "sqlite"
data_dir = "/from/file"
theme = "neon"
log_level = "debug"
`)
	t.Setenv("TADA_DATA_DIR", "/from/env")
	t.Setenv("TADA_THEME", "mono")

	cfg, _, err := load(t, "-theme", "classic", "ls")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend != "sqlite" {
		t.Errorf("Backend = %s, want sqlite (file)", cfg.Backend)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug (file)", cfg.LogLevel)
	}
	if cfg.DataDir != "/from/env" {
		t.Errorf("DataDir = %s, want /from/env (env beats file)", cfg.DataDir)
	}
	if cfg.Theme != "classic" {
		t.Errorf("Theme = %s, want classic (flag beats env)", cfg.Theme)
	}
	if !strings.HasSuffix(cfg.File, "config.toml") {
		t.Errorf("File = %s", cfg.File)
	}
}

func TestProjectConfigFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".tada.toml"), "group = true\n")
	cfg, _, err := load(t)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Group {
		t.Error("Group should come from ./.tada.toml")
	}
}

func TestExplicitConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	writeFile(t, path, `log_file = "/tmp/x.log"`)

	cfg, _, err := load(t, "-config", path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogFile != "/tmp/x.log" {
		t.Errorf("LogFile = %s", cfg.LogFile)
	}

	if _, _, err := load(t, "-config", filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
	}{
		{"bad toml", "backend = ", nil},
		{"unknown key", `colour = "red"`, nil},
		{"bad backend", `backend = "mysql"`, nil},
		{"bad level", "", []string{"-log-level", "loud"}},
		{"unknown flag", "", []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "c.toml")
			writeFile(t, path, tt.content)
			args := append([]string{"-config", path}, tt.args...)
			if _, _, err := load(t, args...); err == nil {
				t.Errorf("Load(%v) should fail", args)
			}
		})
	}
}

func TestBackendNormalized(t *testing.T) {
	isolate(t)
	t.Setenv("TADA_BACKEND", " SQLite ")
	cfg, _, err := load(t)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend != "sqlite" {
		t.Errorf("Backend = %q", cfg.Backend)
	}
}
