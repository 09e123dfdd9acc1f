package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn", FormatJSON)
	if err != nil {
		t.Fatalf("new err: %v", err)
	}
	l.Info("dropped")
	l.Warn("kept", "ticket", "t1")
	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, `"ticket":"t1"`) {
		t.Fatalf("unexpected output: %s", out)
	}
	if _, err := New(&buf, "info", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
