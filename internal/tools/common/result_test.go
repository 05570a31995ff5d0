package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/daraja-mcp/internal/daraja"
	"github.com/teemow/daraja-mcp/internal/httpapi"
)

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, r)
	require.Len(t, r.Content, 1)
	text, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestErrorResult_Configuration(t *testing.T) {
	r := ErrorResult(&httpapi.ConfigurationError{Op: "daraja.stk_push", Missing: []string{"PASSKEY"}})
	assert.True(t, r.IsError)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, r)), &payload))
	assert.Equal(t, httpapi.TypeConfigurationError, payload["error"]["type"])
	assert.Contains(t, payload["error"]["message"], "PASSKEY")
	assert.NotContains(t, payload["error"], "status_code")
}

func TestErrorResult_DarajaAPIError(t *testing.T) {
	apiErr := &daraja.APIError{
		Message:    "STK Push failed",
		StatusCode: 400,
		Details:    map[string]any{"errorMessage": "Invalid PhoneNumber"},
		Err:        &httpapi.UpstreamError{Op: "daraja.stk_push", StatusCode: 400},
	}
	r := ErrorResult(fmt.Errorf("stk push: %w", apiErr))

	var payload struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, r)), &payload))
	assert.Equal(t, httpapi.TypeUpstreamError, payload.Error.Type)
	assert.Equal(t, "STK Push failed", payload.Error.Message)
	assert.Equal(t, 400, payload.Error.StatusCode)
	assert.Equal(t, map[string]any{"errorMessage": "Invalid PhoneNumber"}, payload.Error.Details)
}

func TestNewErrorBody_Plain(t *testing.T) {
	body := NewErrorBody(errors.New("boom"))
	assert.Equal(t, ErrorBody{Type: httpapi.TypeInternalError, Message: "boom"}, body)
}

func TestJSONResult(t *testing.T) {
	r, err := JSONResult(map[string]string{"ResponseCode": "0"})
	require.NoError(t, err)
	assert.False(t, r.IsError)
	assert.JSONEq(t, `{"ResponseCode":"0"}`, resultText(t, r))

	_, err = JSONResult(make(chan int))
	assert.Error(t, err)
}
