// Package logging provides structured logging utilities for slotmatch.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Participant name hashing so responses can be correlated without exposing names
//   - Consistent attribute naming across the codebase
//   - An adapter that lets the cron scheduler log through slog
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithEvent(logging.WithOperation(slog.Default(), "store.poll"), eventID)
//	logger.Info("changes emitted",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("response saved",
//	    logging.ParticipantHash(name))
//
// # Security Considerations
//
//   - Participant names are hashed before they reach log output
//   - Calendar feed URLs often embed a private token; use SanitizeURL
//   - Tokens are never logged directly
package logging
