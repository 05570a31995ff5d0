package daraja

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/daraja-mcp/internal/httpapi"
)

var testSTK = STKConfig{
	BusinessShortCode: "174379",
	Passkey:           "passkey",
	CallbackURL:       "https://example.com/callback",
	AccountReference:  "ACME",
}

func newTestClient(t *testing.T, handler http.HandlerFunc, stk STKConfig) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		ConsumerKey:    "k",
		ConsumerSecret: "s",
		BaseURL:        srv.URL,
		STK:            func() STKConfig { return stk },
	}, WithHTTPClient(srv.Client()))
	c.now = func() time.Time { return time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC) }
	return c
}

func TestPassword(t *testing.T) {
	got := Password("174379", "passkey", "20240315093045")
	want := base64.StdEncoding.EncodeToString([]byte("174379passkey20240315093045"))
	assert.Equal(t, want, got)
}

func TestSTKPush_Success(t *testing.T) {
	var gotAuth, gotPath string
	var payload map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		_, _ = w.Write([]byte(`{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_1","ResponseCode":"0"}`))
	}, testSTK)

	out, err := c.STKPush(context.Background(), "T1", STKPushRequest{Amount: 100, PhoneNumber: 254712345678})
	require.NoError(t, err)

	assert.Equal(t, "0", out["ResponseCode"])
	assert.Equal(t, "Bearer T1", gotAuth)
	assert.Equal(t, "/mpesa/stkpush/v1/processrequest", gotPath)

	assert.Equal(t, "174379", payload["BusinessShortCode"])
	assert.Equal(t, "20240315093045", payload["Timestamp"])
	assert.Equal(t, Password("174379", "passkey", "20240315093045"), payload["Password"])
	assert.Equal(t, "CustomerPayBillOnline", payload["TransactionType"])
	assert.Equal(t, float64(100), payload["Amount"])
	assert.Equal(t, float64(254712345678), payload["PartyA"])
	assert.Equal(t, "174379", payload["PartyB"])
	assert.Equal(t, float64(254712345678), payload["PhoneNumber"])
	assert.Equal(t, "https://example.com/callback", payload["CallBackURL"])
	assert.Equal(t, "ACME", payload["AccountReference"])
	assert.Equal(t, "Payment of goods/services", payload["TransactionDesc"])
}

func TestSTKPush_MissingMerchantSettings(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, STKConfig{BusinessShortCode: "174379"})

	_, err := c.STKPush(context.Background(), "T1", STKPushRequest{Amount: 1, PhoneNumber: 254700000000})
	require.Error(t, err)

	var cfgErr *httpapi.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"PASSKEY", "CALLBACK_URL", "ACCOUNT_REFERENCE"}, cfgErr.Missing)
	assert.False(t, called)
}

func TestSTKPush_Validation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, testSTK)

	_, err := c.STKPush(context.Background(), "T1", STKPushRequest{Amount: 0, PhoneNumber: 254700000000})
	assert.Equal(t, httpapi.TypeValidationError, httpapi.ErrorType(err))

	_, err = c.STKPush(context.Background(), "T1", STKPushRequest{Amount: 10})
	assert.Equal(t, httpapi.TypeValidationError, httpapi.ErrorType(err))
}

func TestSTKPush_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorCode":"400.002.02","errorMessage":"Bad Request - Invalid Amount"}`))
	}, testSTK)

	_, err := c.STKPush(context.Background(), "T1", STKPushRequest{Amount: 1, PhoneNumber: 254700000000})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "STK Push failed", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, map[string]any{"errorCode": "400.002.02", "errorMessage": "Bad Request - Invalid Amount"}, apiErr.Details)
	assert.Equal(t, httpapi.TypeUpstreamError, httpapi.ErrorType(err))

	encoded, err := json.Marshal(apiErr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"STK Push failed","status_code":400,"details":{"errorCode":"400.002.02","errorMessage":"Bad Request - Invalid Amount"}}`, string(encoded))
}

func TestSTKPush_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: addr, STK: func() STKConfig { return testSTK }})

	_, err := c.STKPush(context.Background(), "T1", STKPushRequest{Amount: 1, PhoneNumber: 254700000000})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Request error", apiErr.Message)
	assert.Zero(t, apiErr.StatusCode)
	assert.Equal(t, httpapi.TypeNetworkError, httpapi.ErrorType(err))
}
