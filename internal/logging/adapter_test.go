package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewCronAdapter_WithNil(t *testing.T) {
	adapter := NewCronAdapter(nil)
	if adapter == nil {
		t.Fatal("NewCronAdapter returned nil")
	}
	if adapter.Logger() == nil {
		t.Error("adapter logger should not be nil when created with nil")
	}
}

func TestCronAdapter_InfoIsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	NewCronAdapter(logger).Info("wake", "now", "12:00")

	if buf.Len() != 0 {
		t.Errorf("cron Info should be logged at debug level, got %q", buf.String())
	}
}

func TestCronAdapter_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	NewCronAdapter(logger).Error(errors.New("boom"), "job failed", "entry", 1)

	out := buf.String()
	if !strings.Contains(out, "job failed") || !strings.Contains(out, "error=boom") || !strings.Contains(out, "entry=1") {
		t.Errorf("unexpected output %q", out)
	}
}

