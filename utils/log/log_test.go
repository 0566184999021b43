package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConvertStringToLogLevel(t *testing.T) {
	levels := map[string]slog.Level{
		"DEBUG": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"ERROR": slog.LevelError,
	}
	for name, expected := range levels {
		level, err := convertStringToLogLevel(name)
		if err != nil {
			t.Errorf("Expected no error for %s, got: %v", name, err)
		}
		if level != expected {
			t.Errorf("Expected level %v for %s, got: %v", expected, name, level)
		}
	}
}

func TestConvertStringToLogLevel_Unknown(t *testing.T) {
	level, err := convertStringToLogLevel("TRACE")
	if err == nil {
		t.Error("Expected error for unknown level, got nil")
	}
	if level != slog.LevelInfo {
		t.Errorf("Expected INFO as default, got: %v", level)
	}
}

func TestNewLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "WARN")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	logger.Info("no debería aparecer")
	logger.Warn("sí debería aparecer")

	out := buf.String()
	if strings.Contains(out, "no debería aparecer") {
		t.Errorf("Expected INFO line to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "sí debería aparecer") {
		t.Errorf("Expected WARN line to be logged, got: %s", out)
	}
}
