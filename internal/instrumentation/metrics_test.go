package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, ctx context.Context, detailed bool) *Provider {
	t.Helper()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
		DetailedLabels:  detailed,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, false).Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 500, 50*time.Millisecond)
}

func TestMetrics_RecordBackendAPIOperation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, false).Metrics()

	// Should not panic
	metrics.RecordBackendAPIOperation(ctx, ServiceDaraja, OperationSTKPush, StatusSuccess, 200*time.Millisecond)
	metrics.RecordBackendAPIOperation(ctx, ServiceDaraja, OperationGenerateQR, StatusError, 500*time.Millisecond)
	metrics.RecordBackendAPIOperation(ctx, ServiceUnstructured, OperationRunWorkflow, StatusSuccess, 100*time.Millisecond)
}

func TestMetrics_RecordCredentialFetch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, false).Metrics()

	// Should not panic
	metrics.RecordCredentialFetch(ctx, CredentialResultSuccess, 120*time.Millisecond)
	metrics.RecordCredentialFetch(ctx, CredentialResultFailure, 3*time.Second)
	metrics.RecordCredentialFetch(ctx, CredentialResultDiscarded, 80*time.Millisecond)
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, false).Metrics()

	// Should not panic
	metrics.RecordToolInvocation(ctx, "stk_push", StatusSuccess, 300*time.Millisecond)
	metrics.RecordToolInvocation(ctx, "create_workflow", StatusError, time.Second)
}

func TestMetrics_RecordToolInvocationWithReference_DetailedLabels(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, true).Metrics()
	if !metrics.detailedLabels {
		t.Fatal("expected detailed labels to be enabled")
	}

	// Should not panic
	metrics.RecordToolInvocationWithReference(ctx, "stk_push", StatusSuccess, "INV-001", 300*time.Millisecond)
	metrics.RecordToolInvocationWithReference(ctx, "stk_push", StatusSuccess, "", 300*time.Millisecond)
}

func TestMetrics_ActiveSessions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx, false).Metrics()

	// Should not panic
	metrics.IncrementActiveSessions(ctx)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	metrics := provider.Metrics()

	// None of these should panic on an uninitialized recorder
	metrics.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	metrics.RecordBackendAPIOperation(ctx, ServiceDaraja, OperationGenerateToken, StatusSuccess, time.Millisecond)
	metrics.RecordCredentialFetch(ctx, CredentialResultSuccess, time.Millisecond)
	metrics.RecordToolInvocation(ctx, "stk_push", StatusSuccess, time.Millisecond)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var metrics *Metrics
	ctx := context.Background()

	// A nil recorder is what handlers see when instrumentation is off
	metrics.RecordBackendAPIOperation(ctx, ServiceS3, OperationListObjects, StatusSuccess, time.Millisecond)
	metrics.RecordCredentialFetch(ctx, CredentialResultFailure, time.Millisecond)
	metrics.RecordToolInvocation(ctx, "list_source_documents", StatusSuccess, time.Millisecond)
}
