package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"podium/internal/config"
	"podium/internal/history"
	"podium/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	backend    *testsupport.Backend
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	backend := testsupport.NewBackend(t, sampleResults())
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithBackendURL(backend.URL)}, opts...)...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("PODIUM_BACKEND_URL", "")
	cfg.Playback.TickMillis = 1
	cfg.Recording.Device = filepath.Join(base, "video0")
	cfg.Recording.WatchDevice = false

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		backend:    backend,
		configPath: configPath,
		baseDir:    base,
	}
}

func sampleResults() map[string]any {
	return map[string]any{
		"transcript": "so um today I will uh walk through the plan",
		"metrics": map[string]any{
			"filler_word_count": 3,
			"filler_words":      map[string]int{"um": 2, "uh": 1},
			"word_count":        120,
			"wpm":               142.0,
			"pace_label":        "Good pace",
			"duration_seconds":  50.0,
		},
		"scores":       map[string]float64{"clarity": 7.0, "confidence_language": 6.5, "content_structure": 8.0},
		"strengths":    []string{"Strong opening"},
		"improvements": []map[string]any{{"title": "Slow down", "detail": "Pause between points."}},
		"annotations":  []map[string]any{{"time": 4.0, "label": "filler_words", "message": "um"}},
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) writeClip(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(e.baseDir, "input", name)
	testsupport.WriteFile(t, path, size)
	return path
}

func (e *cliTestEnv) openHistory(t *testing.T) *history.Store {
	t.Helper()
	return testsupport.MustOpenHistory(t, e.cfg)
}

func (e *cliTestEnv) sessions(t *testing.T) []history.Session {
	t.Helper()
	store := e.openHistory(t)
	sessions, err := store.List(context.Background(), history.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return sessions
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
