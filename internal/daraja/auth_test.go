package daraja

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/daraja-mcp/internal/httpapi"
)

func TestFetchToken_Success(t *testing.T) {
	var gotAuth, gotGrant, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotGrant = r.URL.Query().Get("grant_type")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"T1","expires_in":"3599"}`))
	}))
	defer srv.Close()

	cred, err := FetchToken(context.Background(), srv.Client(), "key", "secret", srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "T1", cred.Token)
	assert.Equal(t, 3599, cred.ExpiresIn)
	assert.False(t, cred.FetchedAt.IsZero())
	assert.Equal(t, "/oauth/v1/generate", gotPath)
	assert.Equal(t, "client_credentials", gotGrant)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("key:secret")), gotAuth)
}

func TestFetchToken_ExpiresInFormats(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"string", `{"access_token":"T","expires_in":"3599"}`, 3599},
		{"number", `{"access_token":"T","expires_in":100}`, 100},
		{"float", `{"access_token":"T","expires_in":100.0}`, 100},
		{"missing", `{"access_token":"T"}`, 0},
		{"null", `{"access_token":"T","expires_in":null}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			cred, err := FetchToken(context.Background(), srv.Client(), "k", "s", srv.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cred.ExpiresIn)
		})
	}
}

func TestFetchToken_MalformedExpiresIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"T","expires_in":"soon"}`))
	}))
	defer srv.Close()

	_, err := FetchToken(context.Background(), srv.Client(), "k", "s", srv.URL)
	require.Error(t, err)
	assert.Equal(t, httpapi.TypeUpstreamError, httpapi.ErrorType(err))
}

func TestFetchToken_MissingConfiguration(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		key     string
		secret  string
		baseURL string
		missing []string
	}{
		{"no key", "", "s", srv.URL, []string{"MPESA_CONSUMER_KEY"}},
		{"no secret", "k", "", srv.URL, []string{"MPESA_CONSUMER_SECRET"}},
		{"no base url", "k", "s", "", []string{"BASE_URL"}},
		{"nothing", "", "", "", []string{"MPESA_CONSUMER_KEY", "MPESA_CONSUMER_SECRET", "BASE_URL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FetchToken(context.Background(), srv.Client(), tt.key, tt.secret, tt.baseURL)
			require.Error(t, err)

			var cfgErr *httpapi.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.missing, cfgErr.Missing)
		})
	}

	assert.Zero(t, calls.Load(), "no request should be made with missing configuration")
}

func TestFetchToken_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errorMessage":"Invalid credentials"}`))
	}))
	defer srv.Close()

	_, err := FetchToken(context.Background(), srv.Client(), "k", "bad", srv.URL)
	require.Error(t, err)

	var upErr *httpapi.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
}

func TestFetchToken_CancelledMidFlight(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := FetchToken(ctx, srv.Client(), "k", "s", srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, httpapi.TypeNetworkError, httpapi.ErrorType(err))
}

func TestClient_FetchTokenStampsFetchedAt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"T1","expires_in":100}`))
	}))
	defer srv.Close()

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewClient(Config{ConsumerKey: "k", ConsumerSecret: "s", BaseURL: srv.URL + "/"}, WithHTTPClient(srv.Client()))
	c.now = func() time.Time { return fixed }

	cred, err := c.FetchToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixed, cred.FetchedAt)
	assert.Equal(t, fixed.Add(100*time.Second), cred.ExpiryInstant())
	assert.Equal(t, srv.URL, c.BaseURL())
}
