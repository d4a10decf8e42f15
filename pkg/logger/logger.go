// Package logger provides the structured JSON logger used by the HTTP
// layer of the GameSphere scoring engine. It is a thin facade over
// log/slog with typed field constructors for access-log attributes.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// Level is the minimum severity a logger emits.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ParseLevel maps a configuration string to a Level. Unknown values
// fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is one structured attribute on a log line.
type Field = slog.Attr

// Typed field constructors.
var (
	String = slog.String
	Int    = slog.Int
	Int64  = slog.Int64
	Any    = slog.Any
)

// Err builds the conventional error field. A nil error logs as null.
func Err(err error) Field {
	if err == nil {
		return slog.Any("error", nil)
	}
	return slog.String("error", err.Error())
}

// Options configures a Logger.
type Options struct {
	Output    io.Writer
	Level     Level
	AddCaller bool
}

// Logger emits JSON log lines.
type Logger struct {
	s *slog.Logger
}

// New creates a Logger writing JSON to opts.Output (stdout when nil).
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	handler := slog.NewJSONHandler(opts.Output, &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddCaller,
	})
	return &Logger{s: slog.New(handler)}
}

// Default creates a Logger at info level writing to stdout.
func Default() *Logger {
	return New(Options{Level: LevelInfo})
}

// With returns a Logger that adds fields to every line.
func (l *Logger) With(fields ...Field) *Logger {
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return &Logger{s: l.s.With(args...)}
}

func (l *Logger) emit(level slog.Level, msg string, fields []Field) {
	ctx := context.Background()
	if !l.s.Enabled(ctx, level) {
		return
	}

	// Skip runtime.Callers, emit, and the level method so the source
	// attribute points at the call site.
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.AddAttrs(fields...)
	_ = l.s.Handler().Handle(ctx, r)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) { l.emit(LevelDebug, msg, fields) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) { l.emit(LevelInfo, msg, fields) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Field) { l.emit(LevelWarn, msg, fields) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) { l.emit(LevelError, msg, fields) }
