package mpesa_tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/daraja-mcp/internal/daraja"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
	"github.com/teemow/daraja-mcp/internal/logging"
	"github.com/teemow/daraja-mcp/internal/server"
	"github.com/teemow/daraja-mcp/internal/tools/common"
)

// RegisterMpesaTools registers the M-Pesa payment tools with the MCP server
func RegisterMpesaTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.Daraja() == nil {
		return fmt.Errorf("daraja client is not configured")
	}

	stkPushTool := mcp.NewTool("stk_push",
		mcp.WithDescription("Prompts the customer to authorize a payment on their mobile device. Returns the JSON formatted M-PESA API response."),
		mcp.WithNumber("amount",
			mcp.Required(),
			mcp.Description("The amount to be paid"),
		),
		mcp.WithNumber("phone_number",
			mcp.Required(),
			mcp.Description("The phone number of the customer, e.g. 254712345678"),
		),
	)
	s.AddTool(stkPushTool, common.InstrumentedToolHandlerWithService(
		"stk_push", instrumentation.ServiceDaraja, instrumentation.OperationSTKPush, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSTKPush(ctx, request, sc)
		}))

	qrCodeTool := mcp.NewTool("generate_qr_code",
		mcp.WithDescription("Generates a dynamic M-PESA QR code for a payment request. Returns the JSON formatted M-PESA API response including the base64 QR image."),
		mcp.WithString("merchant_name",
			mcp.Required(),
			mcp.Description("Name of the company/M-Pesa Merchant Name"),
		),
		mcp.WithString("transaction_reference_no",
			mcp.Required(),
			mcp.Description("Transaction reference number"),
		),
		mcp.WithNumber("amount",
			mcp.Required(),
			mcp.Description("The total amount for the sale/transaction"),
		),
		mcp.WithString("transaction_type",
			mcp.Required(),
			mcp.Enum(daraja.TransactionTypeCodes...),
			mcp.Description(transactionTypeDescription()),
		),
		mcp.WithString("credit_party_identifier",
			mcp.Required(),
			mcp.Description("Credit Party Identifier. Can be a Mobile Number, Business Number, Agent Till, Paybill or Business number, or Merchant Buy Goods."),
		),
	)
	s.AddTool(qrCodeTool, common.InstrumentedToolHandlerWithService(
		"generate_qr_code", instrumentation.ServiceDaraja, instrumentation.OperationGenerateQR, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGenerateQRCode(ctx, request, sc)
		}))

	return nil
}

func handleSTKPush(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	amount, err := common.RequiredInt64(args, "amount")
	if err != nil {
		return common.ErrorResult(err), nil
	}
	phone, err := common.RequiredInt64(args, "phone_number")
	if err != nil {
		return common.ErrorResult(err), nil
	}

	resp, err := sc.Daraja().STKPush(ctx, sc.CurrentToken(), daraja.STKPushRequest{
		Amount:      amount,
		PhoneNumber: phone,
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}
	sc.Logger().Debug("stk push request accepted",
		logging.Tool("stk_push"),
		logging.PhoneHash(strconv.FormatInt(phone, 10)))
	return common.JSONResult(resp)
}

func handleGenerateQRCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	amount, err := common.RequiredInt64(args, "amount")
	if err != nil {
		return common.ErrorResult(err), nil
	}

	refNo := common.StringArg(args, "transaction_reference_no")
	resp, err := sc.Daraja().GenerateQRCode(ctx, sc.CurrentToken(), daraja.QRCodeRequest{
		MerchantName: common.StringArg(args, "merchant_name"),
		RefNo:        refNo,
		Amount:       amount,
		TrxCode:      common.StringArg(args, "transaction_type"),
		CPI:          common.StringArg(args, "credit_party_identifier"),
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}
	sc.Logger().Debug("qr code generated",
		logging.Tool("generate_qr_code"),
		logging.Reference(refNo))
	return common.JSONResult(resp)
}

func transactionTypeDescription() string {
	parts := make([]string, 0, len(daraja.TransactionTypeCodes))
	for _, code := range daraja.TransactionTypeCodes {
		parts = append(parts, fmt.Sprintf("%s=%s", code, daraja.TransactionTypes[code]))
	}
	return "Transaction type: " + strings.Join(parts, ", ")
}
