package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/daraja-mcp/internal/credential"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
	"github.com/teemow/daraja-mcp/internal/server"
)

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	m := credential.NewManager(credential.FetcherFunc(func(context.Context) (*credential.Credential, error) {
		return &credential.Credential{Token: "T1", ExpiresIn: 3599}, nil
	}), credential.Config{})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("failed to start credential manager: %v", err)
	}

	sc, err := server.NewServerContext(context.Background(), m, server.Clients{}, nil)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown(context.Background()) })
	return sc
}

func requestWith(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandlerWithService_Success(t *testing.T) {
	sc := newTestServerContext(t)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	wrapped := InstrumentedToolHandlerWithService("test_tool", "", "", sc, handler)
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
	if result == nil {
		t.Error("expected result, got nil")
	}
}

func TestInstrumentedToolHandlerWithService_Error(t *testing.T) {
	sc := newTestServerContext(t)

	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	_, err := InstrumentedToolHandlerWithService("test_tool", "", "", sc, handler)(context.Background(), mcp.CallToolRequest{})
	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestInstrumentedToolHandlerWithService_ErrorResult(t *testing.T) {
	sc := newTestServerContext(t)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("error message"), nil
	}

	result, err := InstrumentedToolHandlerWithService("test_tool", "", "", sc, handler)(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("expected result.IsError to be true")
	}
}

func TestInstrumentedToolHandlerWithService_WithMetrics(t *testing.T) {
	sc := newTestServerContext(t)

	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := instrumentation.NewMetrics(meter, true)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	sc.SetMetrics(metrics)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("success"), nil
	}

	wrapped := InstrumentedToolHandlerWithService("stk_push", instrumentation.ServiceDaraja, instrumentation.OperationSTKPush, sc, handler)
	result, err := wrapped(context.Background(), requestWith(map[string]any{"phone_number": float64(254712345678)}))
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result == nil {
		t.Error("expected result, got nil")
	}
}

func TestInstrumentedToolHandlerWithService_AuditMasksPhone(t *testing.T) {
	sc := newTestServerContext(t)

	var buf bytes.Buffer
	sc.SetAuditLogger(instrumentation.NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)), instrumentation.AuditLoggingConfig{Enabled: true}))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return ErrorResult(errors.New("declined")), nil
	}

	wrapped := InstrumentedToolHandlerWithService("stk_push", instrumentation.ServiceDaraja, instrumentation.OperationSTKPush, sc, handler)
	_, _ = wrapped(context.Background(), requestWith(map[string]any{
		"phone_number": float64(254712345678),
		"amount":       float64(10),
	}))

	out := buf.String()
	for _, want := range []string{"tool_failed", "tool=stk_push", "phone=2547*****678", "service=daraja", "operation=stk_push", "invocation_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("audit log %q does not contain %q", out, want)
		}
	}
	if strings.Contains(out, "254712345678") {
		t.Errorf("audit log leaks the full phone number: %q", out)
	}
}
