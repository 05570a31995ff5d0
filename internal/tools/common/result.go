package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/daraja-mcp/internal/daraja"
	"github.com/teemow/daraja-mcp/internal/httpapi"
)

// ErrorBody is the error object returned to MCP clients:
// {"error": {"type", "message", "status_code"?, "details"?}}
type ErrorBody struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Details    any    `json:"details,omitempty"`
}

type errorPayload struct {
	Error ErrorBody `json:"error"`
}

// NewErrorBody classifies err. Daraja failures keep their upstream status
// code and response body as details.
func NewErrorBody(err error) ErrorBody {
	body := ErrorBody{
		Type:    httpapi.ErrorType(err),
		Message: err.Error(),
	}

	var apiErr *daraja.APIError
	if errors.As(err, &apiErr) {
		body.Message = apiErr.Message
		body.StatusCode = apiErr.StatusCode
		body.Details = apiErr.Details
	}
	return body
}

// ErrorResult converts err into an error tool result so a failing call
// never ends the session.
func ErrorResult(err error) *mcp.CallToolResult {
	b, mErr := json.MarshalIndent(errorPayload{Error: NewErrorBody(err)}, "", "  ")
	if mErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(b))
}

// JSONResult returns v as indented JSON text
func JSONResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
