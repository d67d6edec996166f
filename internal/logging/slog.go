package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation       = "operation"
	KeyBackend         = "backend"
	KeyEvent           = "event_id"
	KeyWindow          = "window_id"
	KeyParticipantHash = "participant_hash"
	KeyDuration        = "duration"
	KeyStatus          = "status"
	KeyError           = "error"
	KeyTool            = "tool"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithBackend returns a logger with the storage or calendar backend set.
func WithBackend(logger *slog.Logger, backend string) *slog.Logger {
	return logger.With(slog.String(KeyBackend, backend))
}

// WithEvent returns a logger scoped to one scheduling event.
func WithEvent(logger *slog.Logger, eventID string) *slog.Logger {
	return logger.With(slog.String(KeyEvent, eventID))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Event returns a slog attribute for an event id.
func Event(id string) slog.Attr {
	return slog.String(KeyEvent, id)
}

// Window returns a slog attribute for a candidate window id.
func Window(id string) slog.Attr {
	return slog.String(KeyWindow, id)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Duration returns a slog attribute for an elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeParticipant returns a hashed form of a participant name so that
// log lines about the same person can be correlated without the name itself.
func AnonymizeParticipant(name string) string {
	if name == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(name))
	return "participant:" + hex.EncodeToString(hash[:8])
}

// ParticipantHash returns a slog attribute with the anonymized participant.
func ParticipantHash(name string) slog.Attr {
	return slog.String(KeyParticipantHash, AnonymizeParticipant(name))
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// SanitizeURL keeps only the scheme and host of a URL. Secret iCal feed
// addresses carry their credential in the path or query.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<invalid-url>"
	}
	return u.Scheme + "://" + u.Host + "/..."
}
