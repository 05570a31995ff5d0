package daraja

import (
	"context"
	"net/http"
	"strings"

	"github.com/teemow/daraja-mcp/internal/httpapi"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
)

// QRCodeSize is the image size requested for every QR code
const QRCodeSize = "300"

// GenerateQRCode creates a dynamic M-Pesa QR code. Upstream failures return
// *APIError.
func (c *Client) GenerateQRCode(ctx context.Context, token string, req QRCodeRequest) (map[string]any, error) {
	req.TrxCode = strings.ToUpper(strings.TrimSpace(req.TrxCode))
	if err := validateQRCode(req); err != nil {
		return nil, err
	}
	if cfgErr := httpapi.NewConfigurationError("daraja.generate_qr", [2]string{"BASE_URL", c.config.BaseURL}); cfgErr != nil {
		return nil, cfgErr
	}
	req.Size = QRCodeSize

	resp, err := httpapi.Send(ctx, c.httpClient, &httpapi.Request{
		Service:   instrumentation.ServiceDaraja,
		Operation: instrumentation.OperationGenerateQR,
		Method:    http.MethodPost,
		URL:       c.config.BaseURL + "/mpesa/qrcode/v1/generate",
		Body:      req,
		Authorize: bearer(token),
	})
	if err != nil {
		return nil, apiError("QR code generation failed", err)
	}

	var out map[string]any
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateQRCode(req QRCodeRequest) error {
	switch {
	case strings.TrimSpace(req.MerchantName) == "":
		return &httpapi.ValidationError{Field: "merchant_name", Message: "is required"}
	case strings.TrimSpace(req.RefNo) == "":
		return &httpapi.ValidationError{Field: "transaction_reference_no", Message: "is required"}
	case req.Amount <= 0:
		return &httpapi.ValidationError{Field: "amount", Message: "must be a positive integer"}
	case strings.TrimSpace(req.CPI) == "":
		return &httpapi.ValidationError{Field: "credit_party_identifier", Message: "is required"}
	}
	if _, ok := TransactionTypes[req.TrxCode]; !ok {
		return &httpapi.ValidationError{
			Field:   "transaction_type",
			Message: "must be one of " + strings.Join(TransactionTypeCodes, ", "),
		}
	}
	return nil
}
