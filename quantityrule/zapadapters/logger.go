// Package zapadapters provides a zap implementation of the quantityrule logger interfaces.
package zapadapters

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

const (
	fieldTraceID     = "trace_id"
	fieldSpanID      = "span_id"
	fieldDanglingKey = "!BADKEY"
)

// Logger adapts a *zap.Logger to quantityrule.Logger and quantityrule.ContextualLogger.
// Arguments are slog-style alternating key/value pairs.
type Logger struct {
	logger *zap.Logger
}

// NewLogger wraps logger. A nil logger is replaced by zap.NewNop().
func NewLogger(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Logger{logger: logger}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, fields(args)...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, fields(args)...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, fields(args)...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, fields(args)...)
}

// DebugContext logs at debug level, adding the trace and span id of ctx when present.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, zapcore.DebugLevel, msg, args)
}

// InfoContext logs at info level, adding the trace and span id of ctx when present.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, zapcore.InfoLevel, msg, args)
}

// WarnContext logs at warn level, adding the trace and span id of ctx when present.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, zapcore.WarnLevel, msg, args)
}

// ErrorContext logs at error level, adding the trace and span id of ctx when present.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, zapcore.ErrorLevel, msg, args)
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string, args []any) {
	if !l.logger.Core().Enabled(level) {
		return
	}

	f := fields(args)

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		f = append(f,
			zap.String(fieldTraceID, spanCtx.TraceID().String()),
			zap.String(fieldSpanID, spanCtx.SpanID().String()))
	}

	l.logger.Log(level, msg, f...)
}

func fields(args []any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	f := make([]zap.Field, 0, (len(args)+1)/2)

	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || i+1 == len(args) {
			f = append(f, zap.Any(fieldDanglingKey, args[i]))
			i--

			continue
		}

		f = append(f, field(key, args[i+1]))
	}

	return f
}

func field(key string, value any) zap.Field {
	switch v := value.(type) {
	case string:
		return zap.String(key, v)
	case bool:
		return zap.Bool(key, v)
	case int:
		return zap.Int(key, v)
	case int64:
		return zap.Int64(key, v)
	case float64:
		return zap.Float64(key, v)
	case error:
		return zap.String(key, v.Error())
	case fmt.Stringer:
		return zap.Stringer(key, v)
	default:
		return zap.Any(key, v)
	}
}

var (
	_ quantityrule.Logger           = (*Logger)(nil)
	_ quantityrule.ContextualLogger = (*Logger)(nil)
)
