package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestWithHelpers(t *testing.T) {
	logger := slog.Default()
	if WithOperation(logger, "store.poll") == nil {
		t.Error("WithOperation returned nil")
	}
	if WithTool(logger, "schedule_respond") == nil {
		t.Error("WithTool returned nil")
	}
	if WithBackend(logger, "postgres") == nil {
		t.Error("WithBackend returned nil")
	}
	if WithEvent(logger, "ev-1") == nil {
		t.Error("WithEvent returned nil")
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("op"), KeyOperation, "op"},
		{"tool", Tool("schedule_heatmap"), KeyTool, "schedule_heatmap"},
		{"event", Event("ev-1"), KeyEvent, "ev-1"},
		{"window", Window("w-1"), KeyWindow, "w-1"},
		{"status", Status(StatusSuccess), KeyStatus, StatusSuccess},
		{"duration", Duration(1500 * time.Millisecond), KeyDuration, "1.5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("test error"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	attr = Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string (empty group)", attr.Key)
	}
}

func TestAnonymizeParticipant(t *testing.T) {
	if got := AnonymizeParticipant(""); got != "" {
		t.Errorf("AnonymizeParticipant(\"\") = %q, want empty", got)
	}

	a := AnonymizeParticipant("Alice")
	if !strings.HasPrefix(a, "participant:") || len(a) != len("participant:")+16 {
		t.Errorf("unexpected hash %q", a)
	}
	if a != AnonymizeParticipant("Alice") {
		t.Error("AnonymizeParticipant should be deterministic")
	}
	if a == AnonymizeParticipant("Bob") {
		t.Error("different names should produce different hashes")
	}
	if strings.Contains(a, "Alice") {
		t.Error("hash must not contain the name")
	}
}

func TestParticipantHash(t *testing.T) {
	attr := ParticipantHash("Alice")
	if attr.Key != KeyParticipantHash {
		t.Errorf("ParticipantHash key = %q, want %q", attr.Key, KeyParticipantHash)
	}
	if attr.Value.String() != AnonymizeParticipant("Alice") {
		t.Errorf("ParticipantHash value = %q", attr.Value.String())
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"a_very_long_token_string", "[token:24 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"https://calendar.google.com/calendar/ical/secret/basic.ics", "https://calendar.google.com/..."},
		{"https://example.com/feed.ics?token=abc", "https://example.com/..."},
		{"not a url", "<invalid-url>"},
		{"", "<invalid-url>"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := SanitizeURL(tt.raw); got != tt.expected {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}
