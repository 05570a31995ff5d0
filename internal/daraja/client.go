package daraja

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/daraja-mcp/internal/httpapi"
)

// Config holds the consumer credentials and where to reach Daraja
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	BaseURL        string

	// STK returns the merchant settings for STK push at call time
	STK func() STKConfig
}

// Client wraps the Daraja REST API. It holds no token; callers pass the
// current bearer token on every payment call.
type Client struct {
	config     Config
	httpClient httpapi.Doer
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every request
func WithHTTPClient(client httpapi.Doer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient creates a Daraja client
func NewClient(config Config, opts ...Option) *Client {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	c := &Client{
		config:     config,
		httpClient: httpapi.NewHTTPClient(0),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

func (c *Client) stkConfig() STKConfig {
	if c.config.STK == nil {
		return STKConfig{}
	}
	return c.config.STK()
}

// apiError converts an httpapi failure into the structured error object
// returned to tool callers.
func apiError(message string, err error) error {
	switch e := err.(type) {
	case *httpapi.UpstreamError:
		return &APIError{
			Message:    message,
			StatusCode: e.StatusCode,
			Details:    decodeDetails(e.Body),
			Err:        err,
		}
	case *httpapi.NetworkError:
		return &APIError{
			Message: "Request error",
			Details: e.Err.Error(),
			Err:     err,
		}
	default:
		return err
	}
}

// bearer attaches token as an OAuth2 bearer credential
func bearer(token string) func(*http.Request) {
	return (&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader
}

// decodeDetails returns the upstream body as JSON when it parses, or as
// the raw string otherwise.
func decodeDetails(body string) any {
	var details any
	if err := json.Unmarshal([]byte(body), &details); err != nil {
		return body
	}
	return details
}
