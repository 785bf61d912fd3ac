package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
)

// SpyLogRecord represents a recorded log call.
type SpyLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// Attr returns the value following key in the record's key/value args.
func (r SpyLogRecord) Attr(key string) (any, bool) {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if k, ok := r.Args[i].(string); ok && k == key {
			return r.Args[i+1], true
		}
	}

	return nil, false
}

type logRecorder struct {
	mu      sync.Mutex
	records []SpyLogRecord
}

func (l *logRecorder) add(ctx context.Context, level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, SpyLogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

// Records returns a copy of all captured records.
func (l *logRecorder) Records() []SpyLogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]SpyLogRecord(nil), l.records...)
}

// RecordsAt returns the captured records of one level ("debug", "info", "warn", "error").
func (l *logRecorder) RecordsAt(level string) []SpyLogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	var records []SpyLogRecord
	for _, record := range l.records {
		if record.Level == level {
			records = append(records, record)
		}
	}

	return records
}

// HasLog checks if a record with the given level and message exists.
func (l *logRecorder) HasLog(level, message string) bool {
	for _, record := range l.RecordsAt(level) {
		if record.Message == message {
			return true
		}
	}

	return false
}

// LoggerSpy is a Logger that captures log calls.
type LoggerSpy struct {
	logRecorder
}

// NewLoggerSpy creates an empty LoggerSpy.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

// Debug implements circulation.Logger.
func (s *LoggerSpy) Debug(msg string, args ...any) { s.add(context.Background(), "debug", msg, args) }

// Info implements circulation.Logger.
func (s *LoggerSpy) Info(msg string, args ...any) { s.add(context.Background(), "info", msg, args) }

// Warn implements circulation.Logger.
func (s *LoggerSpy) Warn(msg string, args ...any) { s.add(context.Background(), "warn", msg, args) }

// Error implements circulation.Logger.
func (s *LoggerSpy) Error(msg string, args ...any) { s.add(context.Background(), "error", msg, args) }

// ContextualLoggerSpy is a ContextualLogger that captures log calls together with their context.
type ContextualLoggerSpy struct {
	logRecorder
}

// NewContextualLoggerSpy creates an empty ContextualLoggerSpy.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

// DebugContext implements circulation.ContextualLogger.
func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "debug", msg, args)
}

// InfoContext implements circulation.ContextualLogger.
func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "info", msg, args)
}

// WarnContext implements circulation.ContextualLogger.
func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "warn", msg, args)
}

// ErrorContext implements circulation.ContextualLogger.
func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "error", msg, args)
}

var (
	_ circulation.Logger           = (*LoggerSpy)(nil)
	_ circulation.ContextualLogger = (*ContextualLoggerSpy)(nil)
)
