// Package logging provides structured logging helpers built on log/slog.
//
// It defines the canonical attribute keys used across the application
// (operation, turn_id, user_hash, tool, status, duration) and helpers that
// keep personally identifying information out of log output: Telegram user
// IDs are logged only as truncated SHA-256 hashes, and credentials are
// reduced to length indicators.
//
// # Example Usage
//
//	logger := logging.WithTurn(slog.Default(), turnID, userID)
//	logger.Info("turn completed",
//	    logging.Status(logging.StatusSuccess),
//	    slog.Duration(logging.KeyDuration, elapsed))
package logging
