// Package logger provides structured logging for the NDAify client.
//
// It wraps log/slog:
//
//   - logger.go: handler setup and the shared, runtime-adjustable level
//   - context.go: request id and operation propagation
//   - redact.go: masking of API keys and Authorization values
package logger
