package common

import (
	"math"
	"strconv"
	"strings"

	"github.com/teemow/daraja-mcp/internal/httpapi"
)

// referenceKeys are checked in order for the business reference recorded
// with each invocation
var referenceKeys = []string{"transaction_reference_no", "workflow_id"}

// PhoneFromArgs returns the customer phone number argument as a string,
// or "" when the tool takes none.
func PhoneFromArgs(args map[string]any) string {
	switch v := args["phone_number"].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// ReferenceFromArgs returns the first business reference argument present
func ReferenceFromArgs(args map[string]any) string {
	for _, key := range referenceKeys {
		if v, ok := args[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// StringArg returns a trimmed string argument or ""
func StringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return strings.TrimSpace(v)
}

// RequiredString returns a non-empty string argument
func RequiredString(args map[string]any, name string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return "", &httpapi.ValidationError{Field: name, Message: "is required"}
	}
	v, ok := raw.(string)
	if !ok {
		return "", &httpapi.ValidationError{Field: name, Message: "must be a string"}
	}
	if v = strings.TrimSpace(v); v == "" {
		return "", &httpapi.ValidationError{Field: name, Message: "cannot be empty"}
	}
	return v, nil
}

// RequiredInt64 returns a whole-number argument. JSON numbers arrive as
// float64; numeric strings are accepted too.
func RequiredInt64(args map[string]any, name string) (int64, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, &httpapi.ValidationError{Field: name, Message: "is required"}
	}
	return toInt64(name, raw)
}

// OptionalInt returns an integer argument or def when absent
func OptionalInt(args map[string]any, name string, def int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}
	n, err := toInt64(name, raw)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func toInt64(name string, raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, &httpapi.ValidationError{Field: name, Message: "must be a whole number"}
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, &httpapi.ValidationError{Field: name, Message: "must be a whole number"}
		}
		return n, nil
	default:
		return 0, &httpapi.ValidationError{Field: name, Message: "must be a number"}
	}
}
