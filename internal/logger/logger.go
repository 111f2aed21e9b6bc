// Package logger provides structured, context-aware logging on top of zerolog.
package logger

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Level is the minimum severity a Logger emits.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LoggerInterface is the logging contract used across the application.
// Args are alternating key/value pairs.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

// TraceIDFn extracts a trace identifier from a context.
type TraceIDFn func(ctx context.Context) string

// OtelTraceID returns the OTEL trace id of the span in ctx, if any.
func OtelTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Logger implements LoggerInterface.
type Logger struct {
	zl      zerolog.Logger
	traceID TraceIDFn
}

var _ LoggerInterface = (*Logger)(nil)

// New creates a Logger writing JSON lines to w. A nil traceIDFn falls back
// to the OTEL span context.
func New(w io.Writer, level Level, serviceName string, traceIDFn TraceIDFn) *Logger {
	if traceIDFn == nil {
		traceIDFn = OtelTraceID
	}

	zl := zerolog.New(w).
		Level(level.zerolog()).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return &Logger{zl: zl, traceID: traceIDFn}
}

// NewConsole creates a Logger with human-readable output, for local runs.
func NewConsole(w io.Writer, level Level, serviceName string) *Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return New(cw, level, serviceName, nil)
}

// With returns a child logger that always carries the given key/values.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		zl:      l.zl.With().Fields(args).Logger(),
		traceID: l.traceID,
	}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, l.zl.Debug(), 0, msg, args)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, l.zl.Info(), 0, msg, args)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, l.zl.Warn(), 0, msg, args)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, l.zl.Error(), 0, msg, args)
}

func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, l.zl.Debug(), caller, msg, args)
}

func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, l.zl.Info(), caller, msg, args)
}

func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, l.zl.Warn(), caller, msg, args)
}

func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, l.zl.Error(), caller, msg, args)
}

func (l *Logger) write(ctx context.Context, e *zerolog.Event, caller int, msg string, args []any) {
	// Disabled levels return a nil event.
	if e == nil {
		return
	}
	if caller > 0 {
		e = e.Caller(caller + 2)
	}
	if ctx != nil && l.traceID != nil {
		if id := l.traceID(ctx); id != "" {
			e = e.Str("trace_id", id)
		}
	}
	if len(args) > 0 {
		e = e.Fields(args)
	}
	e.Msg(msg)
}
