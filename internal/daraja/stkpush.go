package daraja

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/teemow/daraja-mcp/internal/httpapi"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
)

const (
	timestampLayout        = "20060102150405"
	transactionTypePaybill = "CustomerPayBillOnline"
	transactionDesc        = "Payment of goods/services"
)

// STKPush prompts the customer to authorize a payment on their phone.
// Merchant settings are read from Config.STK on every call; missing ones
// return a *httpapi.ConfigurationError. Upstream failures return *APIError.
func (c *Client) STKPush(ctx context.Context, token string, req STKPushRequest) (map[string]any, error) {
	if req.Amount <= 0 {
		return nil, &httpapi.ValidationError{Field: "amount", Message: "must be a positive integer"}
	}
	if req.PhoneNumber <= 0 {
		return nil, &httpapi.ValidationError{Field: "phone_number", Message: "must be a positive integer"}
	}

	stk := c.stkConfig()
	if cfgErr := httpapi.NewConfigurationError("daraja.stk_push",
		[2]string{"BUSINESS_SHORTCODE", stk.BusinessShortCode},
		[2]string{"PASSKEY", stk.Passkey},
		[2]string{"CALLBACK_URL", stk.CallbackURL},
		[2]string{"ACCOUNT_REFERENCE", stk.AccountReference},
		[2]string{"BASE_URL", c.config.BaseURL},
	); cfgErr != nil {
		return nil, cfgErr
	}

	timestamp := c.now().Format(timestampLayout)
	payload := stkPushPayload{
		BusinessShortCode: stk.BusinessShortCode,
		Password:          Password(stk.BusinessShortCode, stk.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   transactionTypePaybill,
		Amount:            req.Amount,
		PartyA:            req.PhoneNumber,
		PartyB:            stk.BusinessShortCode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       stk.CallbackURL,
		AccountReference:  stk.AccountReference,
		TransactionDesc:   transactionDesc,
	}

	resp, err := httpapi.Send(ctx, c.httpClient, &httpapi.Request{
		Service:   instrumentation.ServiceDaraja,
		Operation: instrumentation.OperationSTKPush,
		Method:    http.MethodPost,
		URL:       c.config.BaseURL + "/mpesa/stkpush/v1/processrequest",
		Body:      payload,
		Authorize: bearer(token),
	})
	if err != nil {
		return nil, apiError("STK Push failed", err)
	}

	var out map[string]any
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Password is base64(shortcode + passkey + timestamp)
func Password(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}
