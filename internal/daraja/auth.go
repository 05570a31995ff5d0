package daraja

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/daraja-mcp/internal/credential"
	"github.com/teemow/daraja-mcp/internal/httpapi"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
)

var _ credential.Fetcher = (*Client)(nil)

// FetchToken requests a client-credentials token with the client's
// consumer key and secret. It implements credential.Fetcher.
func (c *Client) FetchToken(ctx context.Context) (*credential.Credential, error) {
	cred, err := FetchToken(ctx, c.httpClient, c.config.ConsumerKey, c.config.ConsumerSecret, c.config.BaseURL)
	if err != nil {
		return nil, err
	}
	cred.FetchedAt = c.now()
	return cred, nil
}

// FetchToken issues GET {baseURL}/oauth/v1/generate?grant_type=client_credentials
// with HTTP Basic credentials. Missing inputs return a *ConfigurationError
// before any request is made. The token and expires_in are taken from the
// response as-is.
func FetchToken(ctx context.Context, client httpapi.Doer, consumerKey, consumerSecret, baseURL string) (*credential.Credential, error) {
	if cfgErr := httpapi.NewConfigurationError("daraja.generate_token",
		[2]string{"MPESA_CONSUMER_KEY", consumerKey},
		[2]string{"MPESA_CONSUMER_SECRET", consumerSecret},
		[2]string{"BASE_URL", baseURL},
	); cfgErr != nil {
		return nil, cfgErr
	}

	resp, err := httpapi.Send(ctx, client, &httpapi.Request{
		Service:   instrumentation.ServiceDaraja,
		Operation: instrumentation.OperationGenerateToken,
		Method:    http.MethodGet,
		URL:       strings.TrimRight(baseURL, "/") + "/oauth/v1/generate",
		Query:     url.Values{"grant_type": {"client_credentials"}},
		Authorize: func(r *http.Request) {
			r.SetBasicAuth(consumerKey, consumerSecret)
		},
	})
	if err != nil {
		return nil, err
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &httpapi.UpstreamError{
			Op:         "daraja.generate_token",
			StatusCode: resp.StatusCode,
			Body:       "malformed token response: " + err.Error(),
		}
	}

	return &credential.Credential{
		Token:     body.AccessToken,
		ExpiresIn: int(body.ExpiresIn),
		FetchedAt: time.Now(),
	}, nil
}
