package daraja

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Transaction types accepted by the dynamic QR endpoint
const (
	TrxBuyGoods       = "BG"
	TrxWallet         = "WA"
	TrxPaybill        = "PB"
	TrxSendMoney      = "SM"
	TrxSendToBusiness = "SB"
)

// TransactionTypes maps each QR transaction code to its display name
var TransactionTypes = map[string]string{
	TrxBuyGoods:       "Buy Goods",
	TrxWallet:         "Wallet",
	TrxPaybill:        "Paybill",
	TrxSendMoney:      "Send Money",
	TrxSendToBusiness: "Send to Business",
}

// TransactionTypeCodes lists the QR transaction codes in display order
var TransactionTypeCodes = []string{TrxBuyGoods, TrxWallet, TrxPaybill, TrxSendMoney, TrxSendToBusiness}

// STKConfig holds the merchant settings an STK push needs. They are looked
// up on every call so a misconfigured merchant only fails that call.
type STKConfig struct {
	BusinessShortCode string
	Passkey           string
	CallbackURL       string
	AccountReference  string
}

// STKPushRequest is the caller-supplied part of an STK push
type STKPushRequest struct {
	// Amount in whole shillings
	Amount int64

	// PhoneNumber in international format without '+', e.g. 254712345678
	PhoneNumber int64
}

// stkPushPayload is the body of POST /mpesa/stkpush/v1/processrequest
type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            int64  `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       int64  `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// QRCodeRequest describes a dynamic QR code
type QRCodeRequest struct {
	// MerchantName is the company or M-Pesa merchant name
	MerchantName string `json:"MerchantName"`

	// RefNo is the transaction reference number
	RefNo string `json:"RefNo"`

	// Amount is the total sale amount
	Amount int64 `json:"Amount"`

	// TrxCode is one of BG, WA, PB, SM, SB
	TrxCode string `json:"TrxCode"`

	// CPI is the credit party identifier: till, paybill, phone or business number
	CPI string `json:"CPI"`

	// Size of the QR image in pixels
	Size string `json:"Size"`
}

// APIError is the structured error object returned to tool callers when a
// Daraja call fails: {error, status_code?, details?}.
type APIError struct {
	Message    string `json:"error"`
	StatusCode int    `json:"status_code,omitempty"`
	Details    any    `json:"details,omitempty"`

	// Err is the underlying httpapi error
	Err error `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Message, e.StatusCode, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Details)
}

// Unwrap implements the errors.Unwrap interface
func (e *APIError) Unwrap() error {
	return e.Err
}

// tokenResponse is the body of GET /oauth/v1/generate
type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   seconds `json:"expires_in"`
}

// seconds accepts a JSON number or a numeric string. Daraja returns
// "3599" as a string.
type seconds int

// UnmarshalJSON implements json.Unmarshaler
func (s *seconds) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == `""` {
		*s = 0
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		raw = strings.TrimSpace(str)
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid expires_in %q: %w", raw, err)
	}
	*s = seconds(int(n))
	return nil
}
