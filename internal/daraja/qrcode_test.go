package daraja

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/daraja-mcp/internal/httpapi"
)

func validQRRequest() QRCodeRequest {
	return QRCodeRequest{
		MerchantName: "TestMerchant",
		RefNo:        "TestRef123",
		Amount:       200,
		TrxCode:      "bg",
		CPI:          "123456",
	}
}

func TestGenerateQRCode_Success(t *testing.T) {
	var payload map[string]any
	var gotAuth, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		_, _ = w.Write([]byte(`{"ResponseCode":"AG_20191219_000043fdf61864fe9ff5","QRCode":"iVBORw0KGgo="}`))
	}, STKConfig{})

	out, err := c.GenerateQRCode(context.Background(), "T1", validQRRequest())
	require.NoError(t, err)

	assert.Equal(t, "iVBORw0KGgo=", out["QRCode"])
	assert.Equal(t, "Bearer T1", gotAuth)
	assert.Equal(t, "/mpesa/qrcode/v1/generate", gotPath)
	assert.Equal(t, map[string]any{
		"MerchantName": "TestMerchant",
		"RefNo":        "TestRef123",
		"Amount":       float64(200),
		"TrxCode":      "BG",
		"CPI":          "123456",
		"Size":         "300",
	}, payload)
}

func TestGenerateQRCode_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QRCodeRequest)
		field  string
	}{
		{"merchant", func(r *QRCodeRequest) { r.MerchantName = " " }, "merchant_name"},
		{"reference", func(r *QRCodeRequest) { r.RefNo = "" }, "transaction_reference_no"},
		{"amount", func(r *QRCodeRequest) { r.Amount = 0 }, "amount"},
		{"cpi", func(r *QRCodeRequest) { r.CPI = "" }, "credit_party_identifier"},
		{"trx code", func(r *QRCodeRequest) { r.TrxCode = "XX" }, "transaction_type"},
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid input")
	}, STKConfig{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validQRRequest()
			tt.mutate(&req)

			_, err := c.GenerateQRCode(context.Background(), "T1", req)
			var valErr *httpapi.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Equal(t, tt.field, valErr.Field)
		})
	}
}

func TestGenerateQRCode_UpstreamErrorWithTextBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal failure"))
	}, STKConfig{})

	_, err := c.GenerateQRCode(context.Background(), "T1", validQRRequest())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "QR code generation failed", apiErr.Message)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "internal failure", apiErr.Details)
}
