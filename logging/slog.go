// Package logging configures the process-wide slog logger and carries
// per-run fields through contexts.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidLevel is returned for an unrecognised log level name.
var ErrInvalidLevel = errors.New("invalid log level")

var (
	slogger *slog.Logger
	logFile *os.File
)

// Options controls Init.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means warn.
	Level string

	// JSON selects the JSON handler instead of the text handler.
	JSON bool

	// File, when set, receives a copy of every record.
	File string

	// Writer is the primary destination. Defaults to os.Stderr.
	Writer io.Writer
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
	}
}

// Init builds the logger and installs it as the slog default.
func Init(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		_ = Close()
		logFile = f
		writer = io.MultiWriter(writer, f)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	slogger = slog.New(handler)
	slog.SetDefault(slogger)
	return nil
}

// Close closes the log file opened by Init, if any.
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Logger returns the configured logger, or slog.Default before Init.
func Logger() *slog.Logger {
	if slogger == nil {
		return slog.Default()
	}
	return slogger
}

type contextKey string

const (
	ContextKeyRunID contextKey = "run_id"
	ContextKeyTool  contextKey = "tool"
)

// NewRunID returns a fresh identifier for one agent run.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID stores a run id in ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, id)
}

// WithTool stores the tool name in ctx.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, ContextKeyTool, tool)
}

// RunID returns the run id stored in ctx, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRunID).(string)
	return id
}

// WithContext returns base (or Logger when nil) with the context's run
// fields attached.
func WithContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	logger := base
	if logger == nil {
		logger = Logger()
	}
	if id, ok := ctx.Value(ContextKeyRunID).(string); ok && id != "" {
		logger = logger.With("run_id", id)
	}
	if tool, ok := ctx.Value(ContextKeyTool).(string); ok && tool != "" {
		logger = logger.With("tool", tool)
	}
	return logger
}
