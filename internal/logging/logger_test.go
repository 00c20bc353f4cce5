package logging_test

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"logship/internal/config"
	"logship/internal/logging"
)

func TestLineFormatFixedPositions(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Name:        "ml_api_v1",
		Level:       "info",
		Format:      "line",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("service started", slog.String("version", "1.2.0"), slog.Int("workers", 4))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(content))

	parts := strings.SplitN(line, " - ", 4)
	if len(parts) != 4 {
		t.Fatalf("line has %d segments, want 4: %q", len(parts), line)
	}
	if parts[1] != "ml_api_v1" {
		t.Fatalf("logger name segment = %q", parts[1])
	}
	if parts[2] != "INFO" {
		t.Fatalf("level segment = %q", parts[2])
	}
	if !strings.HasPrefix(parts[3], "service started") {
		t.Fatalf("message segment = %q", parts[3])
	}
	if !strings.Contains(parts[3], "version=1.2.0") || !strings.Contains(parts[3], "workers=4") {
		t.Fatalf("attributes missing from line: %q", parts[3])
	}
}

func TestLineFormatQuotesValuesWithSpaces(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Name:        "ml_api",
		Format:      "line",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("slow query", slog.String("query", "machine learning"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `query="machine learning"`) {
		t.Fatalf("value with spaces not quoted: %q", content)
	}
	if !strings.Contains(string(content), " - WARN - ") {
		t.Fatalf("level label missing: %q", content)
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Name:        "ml_api",
		Level:       "warn",
		Format:      "line",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("suppressed")
	logger.Error("kept")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "suppressed") {
		t.Fatalf("info line leaked past warn level: %q", content)
	}
	if !strings.Contains(string(content), "kept") {
		t.Fatalf("error line missing: %q", content)
	}
}

func TestJSONFormatRenamesKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.json")
	logger, err := logging.New(logging.Options{
		Name:        "ml_api",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("hello", slog.String("k", "v"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(content, &record); err != nil {
		t.Fatalf("parse JSON record: %v", err)
	}
	if record["message"] != "hello" {
		t.Fatalf("message = %v", record["message"])
	}
	if record["level"] != "info" {
		t.Fatalf("level = %v", record["level"])
	}
	if _, ok := record["timestamp"].(string); !ok {
		t.Fatalf("timestamp missing or not a string: %v", record["timestamp"])
	}
	if record[logging.FieldLoggerName] != "ml_api" {
		t.Fatalf("logger_name = %v", record[logging.FieldLoggerName])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"INFO":     slog.LevelInfo,
		"warning":  slog.LevelWarn,
		"critical": slog.LevelError,
		"":         slog.LevelInfo,
		"bogus":    slog.LevelInfo,
	}
	for input, want := range cases {
		if got := logging.ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logger.Name = "ml_api"
	cfg.Logger.Tag = "v1"
	cfg.Logger.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("configured sink")

	content, err := os.ReadFile(filepath.Join(cfg.Logger.LogDir, "logship.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), " - ml_api_v1 - INFO - configured sink") {
		t.Fatalf("log file content: %q", content)
	}
}
