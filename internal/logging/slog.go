package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyUserHash  = "user_hash"
	KeyUpdateID  = "update_id"
	KeyTurnID    = "turn_id"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeyModel     = "model"
)

// Status values for consistent logging.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusDegraded = "degraded"
	StatusDropped  = "dropped"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTurn returns a logger carrying the turn ID and anonymized user,
// suitable for every log line emitted while processing one inbound message.
func WithTurn(logger *slog.Logger, turnID string, userID int64) *slog.Logger {
	return logger.With(
		slog.String(KeyTurnID, turnID),
		slog.String(KeyUserHash, AnonymizeUserID(userID)),
	)
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Model returns a slog attribute for the model identifier.
func Model(model string) slog.Attr {
	return slog.String(KeyModel, model)
}

// UpdateID returns a slog attribute for the transport delivery identifier.
// Logged on every delivery so retried webhook deliveries stay visible.
func UpdateID(id int64) slog.Attr {
	return slog.Int64(KeyUpdateID, id)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		// Return an empty Group that slog will omit from output
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeUserID returns a hashed representation of a user identifier for
// logging purposes. This allows correlation of log entries without exposing
// the raw Telegram user ID.
func AnonymizeUserID(userID int64) string {
	hash := sha256.Sum256([]byte(strconv.FormatInt(userID, 10)))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user identifier.
// This is a convenience function to reduce repetition in logging calls and ensure
// consistent attribute naming across the codebase.
//
// Usage:
//
//	logger.Warn("unauthorized sender", logging.UserHash(userID))
func UserHash(userID int64) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeUserID(userID))
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content,
// as even partial token prefixes (like JWT headers) can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
