package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podium/internal/config"
	"podium/internal/logging"
	"podium/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, false)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("analysis submitted", logging.String("preset", "pitch"))

	content, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "analysis submitted") {
		t.Fatalf("expected message in log file, got %q", content)
	}
	if !strings.Contains(string(content), "Preset: pitch") {
		t.Fatalf("expected highlighted preset field, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller", logging.String("lock_path", "/tmp/video0.lock"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", text)
	}
	if !strings.Contains(text, "lock_path: /tmp/video0.lock") {
		t.Fatalf("expected raw debug field, got %q", text)
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "job-7")
	ctx = services.WithRequestID(ctx, "req-1")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "coachapi")).Info("poll complete")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if entry["job_id"] != "job-7" || entry["correlation_id"] != "req-1" || entry["component"] != "coachapi" {
		t.Fatalf("missing context fields: %v", entry)
	}
	if entry["level"] != "info" || entry["msg"] != "poll complete" {
		t.Fatalf("unexpected level/msg: %v", entry)
	}
}

func TestConsoleSubjectIncludesOperationAndJob(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "subject.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithOperation(services.WithJobID(context.Background(), "abc"), "analyze")
	logging.WithContext(ctx, logger).Info("done")

	content, _ := os.ReadFile(logPath)
	if !strings.Contains(string(content), "Analyze · Job abc - done") {
		t.Fatalf("unexpected console subject: %q", content)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "archive upload failed", "archive_upload_failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected %s in warning, got %v", key, entry)
		}
	}
	if entry[logging.FieldEventType] != "archive_upload_failed" {
		t.Fatalf("unexpected event type: %v", entry[logging.FieldEventType])
	}
}

func TestTeeHandlerDuplicatesRecords(t *testing.T) {
	var first, second bytes.Buffer
	h := logging.TeeHandler(
		slog.NewJSONHandler(&first, &slog.HandlerOptions{Level: slog.LevelInfo}),
		nil,
		slog.NewJSONHandler(&second, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h)
	logger.Info("info only")
	logger.Warn("both")

	if strings.Count(first.String(), "\n") != 2 {
		t.Fatalf("expected two records in first handler, got %q", first.String())
	}
	if strings.Count(second.String(), "\n") != 1 || !strings.Contains(second.String(), "both") {
		t.Fatalf("expected only the warning in second handler, got %q", second.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", OutputPaths: []string{filepath.Join(t.TempDir(), "x.log")}}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected nop logger to be disabled")
	}
}
