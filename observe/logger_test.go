package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// record runs emit against a call-scoped logger and decodes the JSON
// line it produced. Fails the test if the line does not parse.
func record(t *testing.T, level string, meta CallMeta, emit func(Logger)) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	emit(NewLoggerWithWriter(level, &buf).WithCall(meta))

	if buf.Len() == 0 {
		t.Fatal("logger produced no output")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v\noutput: %s", err, buf.String())
	}
	return entry
}

func TestLogger_CallIdentityOnEveryRecord(t *testing.T) {
	meta := CallMeta{Subject: "acct-42", Endpoint: "chat.completions", Model: "gpt-4o"}
	entry := record(t, "info", meta, func(l Logger) {
		l.Info(context.Background(), "call admitted")
	})

	if got := entry["call.subject"]; got != "acct-42" {
		t.Errorf("call.subject = %v, want acct-42", got)
	}
	if got := entry["call.endpoint"]; got != "chat.completions" {
		t.Errorf("call.endpoint = %v, want chat.completions", got)
	}
	if got := entry["call.model"]; got != "gpt-4o" {
		t.Errorf("call.model = %v, want gpt-4o", got)
	}
	if _, present := entry["call.provider"]; present {
		t.Error("call.provider should be omitted when unset")
	}
}

func TestLogger_Levels(t *testing.T) {
	meta := CallMeta{Subject: "acct-1", Endpoint: "completions"}

	tests := []struct {
		level string
		emit  func(Logger)
	}{
		{"debug", func(l Logger) { l.Debug(context.Background(), "m") }},
		{"info", func(l Logger) { l.Info(context.Background(), "m") }},
		{"warn", func(l Logger) { l.Warn(context.Background(), "m") }},
		{"error", func(l Logger) { l.Error(context.Background(), "m") }},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			entry := record(t, "debug", meta, tt.emit)
			if got := entry["level"]; got != tt.level {
				t.Errorf("level = %v, want %s", got, tt.level)
			}
			if entry["timestamp"] == nil {
				t.Error("record has no timestamp")
			}
		})
	}
}

func TestLogger_FieldsPassThrough(t *testing.T) {
	meta := CallMeta{Subject: "acct-1", Endpoint: "embeddings"}
	entry := record(t, "info", meta, func(l Logger) {
		l.Info(context.Background(), "provider call completed",
			Field{Key: "duration_ms", Value: 50.5},
			Field{Key: "cache_hit", Value: true},
		)
	})

	if got := entry["duration_ms"]; got != 50.5 {
		t.Errorf("duration_ms = %v, want 50.5", got)
	}
	if got := entry["cache_hit"]; got != true {
		t.Errorf("cache_hit = %v, want true", got)
	}
	if got := entry["msg"]; got != "provider call completed" {
		t.Errorf("msg = %v, want provider call completed", got)
	}
}

func TestLogger_ErrorFieldSurvives(t *testing.T) {
	meta := CallMeta{Subject: "acct-1", Endpoint: "completions"}
	entry := record(t, "info", meta, func(l Logger) {
		l.Error(context.Background(), "provider call failed",
			Field{Key: "error", Value: "connection timeout"},
		)
	})

	if got := entry["level"]; got != "error" {
		t.Errorf("level = %v, want error", got)
	}
	if got := entry["error"]; got != "connection timeout" {
		t.Errorf("error = %v, want connection timeout", got)
	}
}

func TestLogger_PromptAndCredentialsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).
		WithCall(CallMeta{Subject: "acct-1", Endpoint: "chat.completions"})

	logger.Info(context.Background(), "call executed",
		Field{Key: "prompt", Value: "confidential user prompt"},
		Field{Key: "api_key", Value: "sk-secret-key-123"},
		Field{Key: "duration_ms", Value: 12.0},
	)

	output := buf.String()
	for _, leaked := range []string{"confidential user prompt", "sk-secret-key-123"} {
		if strings.Contains(output, leaked) {
			t.Errorf("sensitive value %q reached the log stream", leaked)
		}
	}
	if !strings.Contains(output, "[REDACTED]") {
		t.Error("expected redaction marker in output")
	}
	if !strings.Contains(output, "12") {
		t.Error("non-sensitive field should not be redacted")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf).
		WithCall(CallMeta{Subject: "acct-1", Endpoint: "completions"})

	logger.Info(context.Background(), "below threshold")
	if buf.Len() != 0 {
		t.Errorf("info record emitted at warn level: %s", buf.String())
	}

	logger.Warn(context.Background(), "at threshold")
	if !strings.Contains(buf.String(), "at threshold") {
		t.Error("warn record dropped at warn level")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := LogLevel(99).String(); got != "info" {
		t.Errorf("LogLevel(99).String() = %q, want info", got)
	}
}
