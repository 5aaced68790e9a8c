package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scoutlens/internal/config"
)

// contextKey is a type for context keys.
type contextKey string

// TraceIDContextKey stores the request trace ID in a context.
const TraceIDContextKey contextKey = "trace_id"

// NewLogger creates the application-wide slog logger. Output is always
// JSON; destination is controlled by the logging config.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(cfg.Level),
	}

	var output io.Writer = os.Stdout
	var closer io.Closer

	switch strings.ToLower(cfg.Output) {
	case "file":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		output = file
		closer = file
	case "both":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		output = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	handler := &traceHandler{Handler: slog.NewJSONHandler(output, opts)}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer, nil
}

// traceHandler wraps a slog.Handler to inject trace_id from the context.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID := GetTraceID(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID retrieves the trace ID from the context, or "".
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDContextKey).(string); ok {
		return traceID
	}
	return ""
}

func openLogFile(filePath string) (*os.File, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", dir, err)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", filePath, err)
	}
	return file, nil
}
