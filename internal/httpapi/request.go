package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/teemow/daraja-mcp/internal/instrumentation"
)

// DefaultTimeout bounds a single backend request when the caller's client
// has no timeout of its own.
const DefaultTimeout = 30 * time.Second

// Doer is the subset of *http.Client used by the backend wrappers.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Doer = (*http.Client)(nil)

// Request describes a single backend call.
type Request struct {
	// Service and Operation label spans, e.g. "daraja" / "stk_push"
	Service   string
	Operation string

	// ResourceType and ResourceID tag the span with the object acted on
	ResourceType string
	ResourceID   string

	Method string
	URL    string
	Query  url.Values
	Header http.Header

	// Body is JSON-encoded when non-nil
	Body any

	// Authorize, when set, attaches credentials to the outgoing request
	Authorize func(*http.Request)
}

// Name returns "service.operation" for error messages.
func (r *Request) Name() string {
	return r.Service + "." + r.Operation
}

// Response holds a fully read backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into out.
func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response body (status %d): %w", r.StatusCode, err)
	}
	return nil
}

// NewHTTPClient returns an *http.Client with the given timeout, or
// DefaultTimeout when timeout is zero.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Send issues req once. Transport failures come back as *NetworkError and
// non-2xx statuses as *UpstreamError; the body is always read and closed.
func Send(ctx context.Context, client Doer, req *Request) (*Response, error) {
	if client == nil {
		client = NewHTTPClient(0)
	}

	ctx, span := instrumentation.StartBackendSpan(ctx, req.Service, req.Operation,
		instrumentation.ResourceAttributes(req.ResourceType, req.ResourceID)...)
	defer span.End()

	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("%s: failed to build request: %w", req.Name(), err)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		netErr := &NetworkError{Op: req.Name(), Err: err}
		instrumentation.SetSpanError(span, netErr)
		return nil, netErr
	}

	body, err := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil {
		slog.Warn("failed to close response body", "request", req.Name(), "error", closeErr)
	}
	if err != nil {
		netErr := &NetworkError{Op: req.Name(), Err: fmt.Errorf("failed to read response body: %w", err)}
		instrumentation.SetSpanError(span, netErr)
		return nil, netErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upErr := &UpstreamError{Op: req.Name(), StatusCode: resp.StatusCode, Body: string(body)}
		instrumentation.SetSpanError(span, upErr)
		return nil, upErr
	}

	instrumentation.SetSpanSuccess(span)
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func buildHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	target := req.URL
	if len(req.Query) > 0 {
		u, err := url.Parse(req.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid url %q: %w", req.URL, err)
		}
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Authorize != nil {
		req.Authorize(httpReq)
	}
	return httpReq, nil
}
