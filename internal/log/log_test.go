package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG ":  slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetOutput_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelWarn, false)
	defer SetOutput(&bytes.Buffer{}, slog.LevelInfo, false)

	Info("hidden")
	Component("rpc").Warn("shown", "method", "get_angle")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered: %q", out)
	}
	if !strings.Contains(out, "component=rpc") || !strings.Contains(out, "method=get_angle") {
		t.Errorf("missing attributes: %q", out)
	}
}

func TestSetOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelDebug, true)
	defer SetOutput(&bytes.Buffer{}, slog.LevelInfo, false)

	Debug("cycle", "n", 3)
	if !strings.Contains(buf.String(), `"msg":"cycle"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}
