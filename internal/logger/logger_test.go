package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"unknown defaults to info", "verbose", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelTag(t *testing.T) {
	tests := []struct {
		name     string
		level    slog.Level
		expected string
	}{
		{"error", slog.LevelError, "ERROR"},
		{"warn", slog.LevelWarn, "WARN "},
		{"info", slog.LevelInfo, "INFO "},
		{"debug", slog.LevelDebug, "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := levelTag(tt.level); got != tt.expected {
				t.Errorf("levelTag(%v) = %q, want %q", tt.level, got, tt.expected)
			}
		})
	}
}

func TestFormatAttr(t *testing.T) {
	tests := []struct {
		name     string
		group    string
		attr     slog.Attr
		expected string
	}{
		{"no group", "", slog.String("character", "player"), "  character=player"},
		{"grouped", "world", slog.String("body", "floor"), "  world.body=floor"},
		{"integer value", "", slog.Int("layer", 1), "  layer=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAttr(tt.group, tt.attr); got != tt.expected {
				t.Errorf("formatAttr(%q, %v) = %q, want %q", tt.group, tt.attr, got, tt.expected)
			}
		})
	}
}

func TestConsoleHandlerEnabled(t *testing.T) {
	h := &consoleHandler{level: slog.LevelInfo}

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be enabled at info level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at info level")
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be filtered at info level")
	}
}

func TestConsoleHandlerHandle(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{w: &buf, level: slog.LevelDebug}

	record := slog.NewRecord(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "Character grounded", 0)
	record.AddAttrs(slog.String("character", "player"))

	if err := h.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"12:00:00", "INFO", "Character grounded", "character=player"} {
		if !strings.Contains(output, want) {
			t.Errorf("output %q missing %q", output, want)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("output %q does not end with a newline", output)
	}
}

func TestConsoleHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{w: &buf, level: slog.LevelDebug}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "collision")})

	if len(h.attrs) != 0 {
		t.Error("WithAttrs mutated the original handler")
	}

	record := slog.NewRecord(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "sweep", 0)
	if err := h2.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "component=collision") {
		t.Errorf("output %q missing the pre-attached attr", got)
	}
}

func TestConsoleHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{w: &buf, level: slog.LevelDebug}

	h2 := h.WithGroup("world")
	record := slog.NewRecord(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "step", 0)
	record.AddAttrs(slog.String("body", "floor"))
	if err := h2.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "world.body=floor") {
		t.Errorf("output %q missing group prefix", got)
	}
}

func TestConsoleHandlerWithNestedGroup(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{w: &buf, level: slog.LevelDebug}

	h2 := h.WithGroup("world").WithGroup("ghost")
	record := slog.NewRecord(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "contacts", 0)
	record.AddAttrs(slog.Int("count", 2))
	if err := h2.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "world.ghost.count=2") {
		t.Errorf("output %q missing nested group prefix", got)
	}
}
