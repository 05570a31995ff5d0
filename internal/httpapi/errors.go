package httpapi

import (
	"errors"
	"fmt"
	"strings"
)

// Error type names reported to tool callers.
const (
	TypeConfigurationError = "ConfigurationError"
	TypeUpstreamError      = "UpstreamError"
	TypeNetworkError       = "NetworkError"
	TypeValidationError    = "ValidationError"
	TypeInternalError      = "InternalError"
)

// ConfigurationError reports required settings that are absent.
type ConfigurationError struct {
	// Op is the operation that needed the settings (e.g. "daraja.fetchToken")
	Op string

	// Missing lists the names of the absent settings
	Missing []string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	msg := "missing required configuration: " + strings.Join(e.Missing, ", ")
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// NewConfigurationError builds a ConfigurationError from name/value pairs,
// returning nil when every value is non-empty.
func NewConfigurationError(op string, settings ...[2]string) *ConfigurationError {
	var missing []string
	for _, s := range settings {
		if strings.TrimSpace(s[1]) == "" {
			missing = append(missing, s[0])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ConfigurationError{Op: op, Missing: missing}
}

// UpstreamError is returned when a backend answers with a non-2xx status.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: upstream returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: upstream returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// NetworkError wraps transport-level failures: timeouts, DNS, resets and
// context cancellation.
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError reports invalid caller-supplied arguments.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ErrorType returns the taxonomy name of err for structured error payloads.
func ErrorType(err error) string {
	var (
		cfgErr      *ConfigurationError
		upstreamErr *UpstreamError
		netErr      *NetworkError
		valErr      *ValidationError
	)
	switch {
	case errors.As(err, &cfgErr):
		return TypeConfigurationError
	case errors.As(err, &upstreamErr):
		return TypeUpstreamError
	case errors.As(err, &netErr):
		return TypeNetworkError
	case errors.As(err, &valErr):
		return TypeValidationError
	default:
		return TypeInternalError
	}
}
