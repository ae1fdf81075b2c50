package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"podium/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PODIUM_BACKEND_URL", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "podium")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.HistoryPath() != filepath.Join(wantData, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.Backend.URL != "http://localhost:8000" {
		t.Fatalf("unexpected backend url: %q", cfg.Backend.URL)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.Polling.MaxAttempts != 120 {
		t.Fatalf("unexpected max attempts: %d", cfg.Polling.MaxAttempts)
	}
	if cfg.AnswerLimit() != 90*time.Second {
		t.Fatalf("unexpected answer limit: %s", cfg.AnswerLimit())
	}
	if cfg.FillerChallengeLimit() != 60*time.Second {
		t.Fatalf("unexpected filler limit: %s", cfg.FillerChallengeLimit())
	}
	if cfg.Playback.ToleranceSeconds != 0.4 || cfg.Playback.DisplaySeconds != 2.5 || cfg.Playback.ResetBelowSeconds != 1.0 {
		t.Fatalf("unexpected playback defaults: %+v", cfg.Playback)
	}
	if cfg.Archive.Enabled {
		t.Fatal("expected archive disabled by default")
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected binaries: %q %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.ClipsDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "podium.toml")
	t.Setenv("PODIUM_BACKEND_URL", "")

	type payload struct {
		Backend struct {
			URL string `toml:"url"`
		} `toml:"backend"`
		Polling struct {
			IntervalSeconds float64 `toml:"interval_seconds"`
			MaxAttempts     int     `toml:"max_attempts"`
		} `toml:"polling"`
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Backend.URL = "https://coach.example.com/"
	custom.Polling.IntervalSeconds = 0.5
	custom.Polling.MaxAttempts = 10
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Backend.URL != "https://coach.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Backend.URL)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.Polling.MaxAttempts != 10 {
		t.Fatalf("unexpected max attempts: %d", cfg.Polling.MaxAttempts)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Logging.Format)
	}
	if cfg.Paths.DataDir != filepath.Join(tempDir, "data") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PODIUM_BACKEND_URL", "http://10.0.2.2:8000")
	t.Setenv("PODIUM_NTFY_TOPIC", "https://ntfy.sh/podium-test")
	t.Setenv("PODIUM_ARCHIVE_ACCESS_KEY", "access")
	t.Setenv("PODIUM_ARCHIVE_SECRET_KEY", "secret")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.URL != "http://10.0.2.2:8000" {
		t.Fatalf("expected env backend url, got %q", cfg.Backend.URL)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/podium-test" {
		t.Fatalf("expected env ntfy topic, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Archive.AccessKey != "access" || cfg.Archive.SecretKey != "secret" {
		t.Fatalf("expected env archive credentials, got %q/%q", cfg.Archive.AccessKey, cfg.Archive.SecretKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"relative backend", func(c *config.Config) { c.Backend.URL = "localhost:8000" }, "backend.url"},
		{"ftp backend", func(c *config.Config) { c.Backend.URL = "ftp://example.com" }, "http or https"},
		{"zero interval", func(c *config.Config) { c.Polling.IntervalSeconds = 0 }, "polling.interval_seconds"},
		{"zero attempts", func(c *config.Config) { c.Polling.MaxAttempts = 0 }, "polling.max_attempts"},
		{"relative device", func(c *config.Config) { c.Recording.Device = "video0" }, "recording.device"},
		{"audio format", func(c *config.Config) { c.Recording.AudioFormat = "jack" }, "recording.audio_format"},
		{"answer limit", func(c *config.Config) { c.Recording.AnswerLimitSeconds = 0 }, "recording.answer_limit_seconds"},
		{"tolerance", func(c *config.Config) { c.Playback.ToleranceSeconds = 0 }, "playback.tolerance_seconds"},
		{"archive endpoint", func(c *config.Config) { c.Archive.Enabled = true }, "archive.endpoint"},
		{"archive scheme", func(c *config.Config) {
			c.Archive.Enabled = true
			c.Archive.Endpoint = "https://minio.local"
		}, "without a scheme"},
		{"archive keys", func(c *config.Config) {
			c.Archive.Enabled = true
			c.Archive.Endpoint = "minio.local:9000"
		}, "archive.access_key"},
		{"log level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %q in %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PODIUM_BACKEND_URL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Recording.Device != "/dev/video0" {
		t.Fatalf("unexpected device from sample: %q", cfg.Recording.Device)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/clips")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "clips") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
