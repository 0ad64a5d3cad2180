package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marketpulse/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")

	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	if logger == nil {
		t.Fatal("Logger is nil")
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}

	logger.Info("test message", "key", "value")

	// Close log file to allow reading on Windows
	CloseLogFile()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var logEntry map[string]interface{}
	line := strings.TrimSpace(string(content))
	if err := json.Unmarshal([]byte(line), &logEntry); err != nil {
		t.Errorf("Log output is not valid JSON: %v", err)
	}

	if logEntry["msg"] != "test message" {
		t.Errorf("Expected msg 'test message', got %v", logEntry["msg"])
	}
}

func TestInitializeLoggerOnce(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	cfg := config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}

	first, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("First initialization failed: %v", err)
	}

	second, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Second initialization failed: %v", err)
	}

	if first != second {
		t.Error("InitializeLogger should return the same instance on repeated calls")
	}
}

func TestTraceIDInjection(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "trace.log")

	cfg := config.LoggingConfig{
		Level:    "debug",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := WithTraceID(context.Background(), "trace-123")
	ctx = WithLoadID(ctx, "load-456")
	logger.InfoContext(ctx, "correlated message")

	CloseLogFile()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var logEntry map[string]interface{}
	line := strings.TrimSpace(string(content))
	if err := json.Unmarshal([]byte(line), &logEntry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v", err)
	}

	if logEntry["trace_id"] != "trace-123" {
		t.Errorf("Expected trace_id 'trace-123', got %v", logEntry["trace_id"])
	}
	if logEntry["load_id"] != "load-456" {
		t.Errorf("Expected load_id 'load-456', got %v", logEntry["load_id"])
	}
}

func TestGetTraceID(t *testing.T) {
	ctx := context.Background()
	if got := GetTraceID(ctx); got != "" {
		t.Errorf("Expected empty trace ID, got %q", got)
	}

	ctx = WithTraceID(ctx, "abc")
	if got := GetTraceID(ctx); got != "abc" {
		t.Errorf("Expected trace ID 'abc', got %q", got)
	}
}

func TestGetLoadID(t *testing.T) {
	ctx := context.Background()
	if got := GetLoadID(ctx); got != "" {
		t.Errorf("Expected empty load ID, got %q", got)
	}

	ctx = WithLoadID(ctx, "xyz")
	if got := GetLoadID(ctx); got != "xyz" {
		t.Errorf("Expected load ID 'xyz', got %q", got)
	}
}

func TestEnsureTraceID(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	if GetTraceID(ctx) == "" {
		t.Error("EnsureTraceID should generate a trace ID")
	}

	ctx2 := EnsureTraceID(ctx)
	if GetTraceID(ctx2) != GetTraceID(ctx) {
		t.Error("EnsureTraceID should keep an existing trace ID")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestGetLoggerWithoutInit(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	if GetLogger() == nil {
		t.Error("GetLogger should fall back to the default logger")
	}
}
