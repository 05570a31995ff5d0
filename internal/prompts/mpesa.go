package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/daraja-mcp/internal/daraja"
)

// DefaultQRReference is used when generate_qr_code_prompt gets no reference
const DefaultQRReference = "QR_PAYMENT"

// RegisterMpesaPrompts registers the payment prompts with the MCP server
func RegisterMpesaPrompts(s *mcpserver.MCPServer) {
	register(s, mpesaPrompts())
}

func mpesaPrompts() []promptEntry {
	stkPushPrompt := mcp.NewPrompt("stk_push_prompt",
		mcp.WithPromptDescription("Asks the assistant to initiate an M-Pesa STK Push payment request"),
		mcp.WithArgument("phone_number",
			mcp.ArgumentDescription("The phone number of the customer"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("amount",
			mcp.ArgumentDescription("The amount to be paid"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("purpose",
			mcp.ArgumentDescription("The purpose of the payment"),
			mcp.RequiredArgument(),
		),
	)

	qrCodePrompt := mcp.NewPrompt("generate_qr_code_prompt",
		mcp.WithPromptDescription("Asks the assistant to generate an M-Pesa QR code for a payment"),
		mcp.WithArgument("merchant_name",
			mcp.ArgumentDescription("Name of the merchant/business"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("amount",
			mcp.ArgumentDescription("Amount to be paid"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("transaction_type",
			mcp.ArgumentDescription("BG for Buy Goods, WA for Wallet, PB for Paybill, SM for Send Money, SB for Send to Business"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("identifier",
			mcp.ArgumentDescription("The recipient identifier (till number, paybill, phone number)"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("reference",
			mcp.ArgumentDescription("Transaction reference number (default: "+DefaultQRReference+")"),
		),
	)

	return []promptEntry{
		{prompt: stkPushPrompt, handler: handleSTKPushPrompt},
		{prompt: qrCodePrompt, handler: handleGenerateQRCodePrompt},
	}
}

func handleSTKPushPrompt(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args, err := requireArguments(request.Params.Arguments, "phone_number", "amount", "purpose")
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("I want you to initiate an M-Pesa STK Push payment request. Here are the details User phone number: %s, Amount: %s, Purpose: %s",
		args["phone_number"], args["amount"], args["purpose"])
	return userPrompt("Initiate an M-Pesa STK Push", text), nil
}

func handleGenerateQRCodePrompt(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args, err := requireArguments(request.Params.Arguments, "merchant_name", "amount", "transaction_type", "identifier")
	if err != nil {
		return nil, err
	}

	trxType := args["transaction_type"]
	description, ok := daraja.TransactionTypes[strings.ToUpper(trxType)]
	if !ok {
		description = trxType
	}
	reference := strings.TrimSpace(request.Params.Arguments["reference"])
	if reference == "" {
		reference = DefaultQRReference
	}

	text := fmt.Sprintf(`I want to generate an M-Pesa QR code with the following details:
- Merchant/Business Name: %s
- Amount: KES %s
- Transaction Type: %s (%s)
- Recipient Identifier: %s
- Reference Number: %s

Please generate a QR code that customers can scan to make this payment.`,
		args["merchant_name"], args["amount"], description, trxType, args["identifier"], reference)
	return userPrompt("Generate an M-Pesa QR code", text), nil
}
