package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromZap_WithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With(String("component", "test"))

	log.Info("hello", Int("n", 3))
	log.Debug("details")

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "hello" {
		t.Errorf("unexpected message %q", entry.Message)
	}
	fields := entry.ContextMap()
	if fields["component"] != "test" {
		t.Errorf("expected component field, got %v", fields)
	}
	if fields["n"] != int64(3) {
		t.Errorf("expected n=3, got %v", fields["n"])
	}
}

func TestNop(t *testing.T) {
	log := OrNop(nil)
	log.Info("ignored")
	if log.With(String("a", "b")) == nil {
		t.Error("With on nop logger returned nil")
	}
	if err := log.Sync(); err != nil {
		t.Errorf("unexpected sync error: %v", err)
	}
}
