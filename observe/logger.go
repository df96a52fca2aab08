package observe

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel orders log severities. Records below the configured level
// are dropped.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

// ParseLogLevel maps a config string to a LogLevel. Unrecognized
// strings fall back to info.
func ParseLogLevel(s string) LogLevel {
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "info"
	}
	return levelNames[l]
}

// redactedKeys are field keys whose values never reach the log stream.
// Prompts and payloads may carry user content; credentials never
// belong in logs at all.
var redactedKeys = map[string]bool{
	"request":    true,
	"payload":    true,
	"prompt":     true,
	"input":      true,
	"inputs":     true,
	"password":   true,
	"secret":     true,
	"token":      true,
	"api_key":    true,
	"apiKey":     true,
	"credential": true,
}

// structuredLogger emits one JSON object per record.
type structuredLogger struct {
	level     LogLevel
	writer    io.Writer
	mu        sync.Mutex
	callMeta  *CallMeta
	baseAttrs map[string]any
}

// NewLogger returns a structured logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter returns a structured logger writing to w.
// Records are serialized under the logger's mutex, so w need not be
// safe for concurrent writes.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &structuredLogger{
		level:     ParseLogLevel(level),
		writer:    w,
		baseAttrs: make(map[string]any),
	}
}

// WithCall returns a logger whose records carry the call identity.
// Provider and model are included only when set.
func (l *structuredLogger) WithCall(meta CallMeta) Logger {
	attrs := make(map[string]any, len(l.baseAttrs)+4)
	for k, v := range l.baseAttrs {
		attrs[k] = v
	}
	attrs["call.subject"] = meta.Subject
	attrs["call.endpoint"] = meta.Endpoint
	if meta.Provider != "" {
		attrs["call.provider"] = meta.Provider
	}
	if meta.Model != "" {
		attrs["call.model"] = meta.Model
	}

	return &structuredLogger{
		level:     l.level,
		writer:    l.writer,
		callMeta:  &meta,
		baseAttrs: attrs,
	}
}

func (l *structuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelDebug, msg, fields)
}

func (l *structuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelInfo, msg, fields)
}

func (l *structuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelWarn, msg, fields)
}

func (l *structuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelError, msg, fields)
}

func (l *structuredLogger) emit(level LogLevel, msg string, fields []Field) {
	if level < l.level {
		return
	}

	record := make(map[string]any, len(l.baseAttrs)+len(fields)+3)
	record["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	record["level"] = level.String()
	record["msg"] = msg
	for k, v := range l.baseAttrs {
		record[k] = v
	}
	for _, f := range fields {
		if redactedKeys[f.Key] {
			record[f.Key] = "[REDACTED]"
		} else {
			record[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		// A field value that cannot marshal drops the whole record.
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer.Write(data)
	l.writer.Write([]byte("\n"))
}

// ExtendedLogger is a Logger that can bind call identity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Ownership: the logger returned by WithCall may share the parent's writer.
type ExtendedLogger interface {
	Logger
	WithCall(meta CallMeta) Logger
}

var _ ExtendedLogger = (*structuredLogger)(nil)
