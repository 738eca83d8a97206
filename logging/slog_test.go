package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("loud"); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestInitJSONWithFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "run.log")

	if err := Init(Options{Level: "info", JSON: true, File: path, Writer: &buf}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	ctx := WithTool(WithRunID(context.Background(), "run-1"), "claude")
	WithContext(ctx, nil).Info("started")
	Logger().Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run-1"`) || !strings.Contains(out, `"tool":"claude"`) {
		t.Errorf("expected context fields in output, got %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("expected debug record to be filtered at info level")
	}

	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "started") {
		t.Errorf("expected log file to contain record, got %s", data)
	}
}

func TestRunID(t *testing.T) {
	id := NewRunID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected uuid run id, got %q", id)
	}
	if RunID(context.Background()) != "" {
		t.Error("expected empty run id for bare context")
	}
	if got := RunID(WithRunID(context.Background(), id)); got != id {
		t.Errorf("RunID = %q, want %q", got, id)
	}
}
