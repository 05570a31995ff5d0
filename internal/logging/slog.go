package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyReference = "reference"
	KeyPhoneHash = "phone_hash"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeyState     = "state"
)

// Status values for consistent logging. These mirror the instrumentation
// status labels so log lines and metrics can be joined.
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

// WithService returns a logger with the service attribute set.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Service returns a slog attribute for the service name.
func Service(svc string) slog.Attr {
	return slog.String(KeyService, svc)
}

// Reference returns a slog attribute for a business reference such as an
// account reference or workflow ID.
func Reference(ref string) slog.Attr {
	return slog.String(KeyReference, ref)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// State returns a slog attribute for a lifecycle state.
func State(state fmt.Stringer) slog.Attr {
	return slog.String(KeyState, state.String())
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

// AnonymizePhone returns a hashed representation of a phone number so log
// entries for the same customer can be correlated without exposing it.
func AnonymizePhone(phone string) string {
	if phone == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(phone))
	return "phone:" + hex.EncodeToString(hash[:8])
}

// PhoneHash returns a slog attribute with the anonymized phone number.
func PhoneHash(phone string) slog.Attr {
	return slog.String(KeyPhoneHash, AnonymizePhone(phone))
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
