package helper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

// ContextualLogRecord is one captured contextual log call.
type ContextualLogRecord struct {
	Level   slog.Level
	Message string
	Args    []any
	Context context.Context
}

// ContextualLoggerSpy is a quantityrule.ContextualLogger that captures calls together with their context.
type ContextualLoggerSpy struct {
	records []ContextualLogRecord
	mu      sync.Mutex
}

// NewContextualLoggerSpy creates a new ContextualLoggerSpy.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

// DebugContext implements the ContextualLogger interface.
func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, slog.LevelDebug, msg, args)
}

// InfoContext implements the ContextualLogger interface.
func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, slog.LevelInfo, msg, args)
}

// WarnContext implements the ContextualLogger interface.
func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, slog.LevelWarn, msg, args)
}

// ErrorContext implements the ContextualLogger interface.
func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, slog.LevelError, msg, args)
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level slog.Level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, ContextualLogRecord{
		Level:   level,
		Message: msg,
		Args:    append([]any(nil), args...),
		Context: ctx,
	})
}

// GetRecords returns a copy of all captured records.
func (s *ContextualLoggerSpy) GetRecords() []ContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]ContextualLogRecord(nil), s.records...)
}

// FindRecord returns the first record with level and message.
func (s *ContextualLoggerSpy) FindRecord(level slog.Level, message string) (ContextualLogRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			return record, true
		}
	}

	return ContextualLogRecord{}, false
}

var _ quantityrule.ContextualLogger = (*ContextualLoggerSpy)(nil)
