// Package logging provides structured logging utilities for the daraja-mcp server.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "credential.renew")
//	logger.Info("access token renewed",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("payment requested",
//	    logging.PhoneHash(phone))
//
// # Security Considerations
//
//   - Customer phone numbers are hashed to prevent PII leakage while allowing correlation
//   - Tokens and consumer secrets are never logged directly
package logging
