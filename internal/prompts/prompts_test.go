package prompts

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptRequest(args map[string]string) mcp.GetPromptRequest {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = args
	return req
}

func promptText(t *testing.T, result *mcp.GetPromptResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, mcp.RoleUser, result.Messages[0].Role)
	tc, ok := result.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestRegisterPrompts(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithPromptCapabilities(true))
	assert.NotPanics(t, func() {
		RegisterMpesaPrompts(s)
		RegisterUnstructuredPrompts(s)
	})
}

func TestDefinitions(t *testing.T) {
	names := make([]string, 0, 3)
	for _, p := range Definitions() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"stk_push_prompt", "generate_qr_code_prompt", "create_and_run_workflow_prompt"}, names)
}

func TestSTKPushPrompt(t *testing.T) {
	result, err := handleSTKPushPrompt(context.Background(), promptRequest(map[string]string{
		"phone_number": "254712345678",
		"amount":       "100",
		"purpose":      "school fees",
	}))
	require.NoError(t, err)
	assert.Equal(t,
		"I want you to initiate an M-Pesa STK Push payment request. Here are the details User phone number: 254712345678, Amount: 100, Purpose: school fees",
		promptText(t, result))
}

func TestSTKPushPrompt_MissingArgument(t *testing.T) {
	_, err := handleSTKPushPrompt(context.Background(), promptRequest(map[string]string{
		"phone_number": "254712345678",
		"amount":       " ",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")
}

func TestGenerateQRCodePrompt(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]string
		contains []string
	}{
		{
			name: "known type and default reference",
			args: map[string]string{
				"merchant_name":    "Mama Mboga",
				"amount":           "250",
				"transaction_type": "bg",
				"identifier":       "373132",
			},
			contains: []string{
				"- Merchant/Business Name: Mama Mboga",
				"- Amount: KES 250",
				"- Transaction Type: Buy Goods (bg)",
				"- Recipient Identifier: 373132",
				"- Reference Number: QR_PAYMENT",
			},
		},
		{
			name: "unknown type and explicit reference",
			args: map[string]string{
				"merchant_name":    "Duka",
				"amount":           "10",
				"transaction_type": "XX",
				"identifier":       "0712345678",
				"reference":        "INV-9",
			},
			contains: []string{
				"- Transaction Type: XX (XX)",
				"- Reference Number: INV-9",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleGenerateQRCodePrompt(context.Background(), promptRequest(tt.args))
			require.NoError(t, err)
			text := promptText(t, result)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
			assert.Contains(t, text, "Please generate a QR code that customers can scan to make this payment.")
		})
	}
}

func TestCreateAndRunWorkflowPrompt(t *testing.T) {
	result, err := handleCreateAndRunWorkflowPrompt(context.Background(), promptRequest(map[string]string{
		"user_input": "extract entities from invoices",
	}))
	require.NoError(t, err)
	assert.Equal(t,
		"The user wants to achieve extract entities from invoices. Assist them by creating a source connector and a destination connector, then setting up the workflow and executing it.",
		promptText(t, result))

	_, err = handleCreateAndRunWorkflowPrompt(context.Background(), promptRequest(nil))
	assert.Error(t, err)
}
