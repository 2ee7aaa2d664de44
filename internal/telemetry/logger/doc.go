// Package logger provides structured logging for the session daemon.
//
// This package wraps log/slog:
//
//   - logger.go: Logger interface, handler setup and the process-wide level
//   - context.go: Context-aware logging with request/trace IDs
//   - redact.go: Masking of session identifiers and secrets
//
// Session IDs are bearer credentials: any attribute whose key ends in
// "session_id", and any string value shaped like a session ID, is reduced
// to its first and last four characters before it reaches the handler.
package logger
