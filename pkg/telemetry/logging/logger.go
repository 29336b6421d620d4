package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format selects the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config configures a Logger.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	// Empty selects info.
	Level string

	// Format is "json" (default) or "text".
	Format string

	// AddSource includes file:line in every record.
	AddSource bool

	// RedactCredentials masks credential-shaped attribute values.
	RedactCredentials bool

	// Writer receives the output. Defaults to os.Stdout.
	Writer io.Writer
}

// Logger is the gateway's structured logger.
type Logger struct {
	slog     *slog.Logger
	redactor *Redactor
}

// New creates a logger from config.
func New(cfg Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if format == FormatText {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	var redactor *Redactor
	if cfg.RedactCredentials {
		redactor = NewRedactor()
	}
	return &Logger{slog: slog.New(handler), redactor: redactor}, nil
}

// Slog returns the underlying slog logger for components that take one
// directly.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// SetDefault installs the logger as the process-wide slog default.
func (l *Logger) SetDefault() {
	slog.SetDefault(l.slog)
}

// With returns a logger carrying additional (redacted) fields.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(l.redact(args)...), redactor: l.redactor}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args)
}

// DebugContext logs at debug level with the context's request fields.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, append(FieldsFromContext(ctx), args...))
}

// InfoContext logs at info level with the context's request fields.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, append(FieldsFromContext(ctx), args...))
}

// WarnContext logs at warn level with the context's request fields.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, append(FieldsFromContext(ctx), args...))
}

// ErrorContext logs at error level with the context's request fields.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, append(FieldsFromContext(ctx), args...))
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if !l.slog.Enabled(ctx, level) {
		return
	}
	l.slog.Log(ctx, level, msg, l.redact(args)...)
}

func (l *Logger) redact(args []any) []any {
	if l.redactor == nil {
		return args
	}
	return l.redactor.RedactArgs(args)
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func parseFormat(s string) (Format, error) {
	switch s {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q", s)
	}
}
