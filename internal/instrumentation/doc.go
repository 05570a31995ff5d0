// Package instrumentation provides OpenTelemetry instrumentation for the
// daraja-mcp server.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for HTTP requests, backend API calls, and credential renewals
//   - Distributed tracing for tool invocations and backend calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of connected MCP client sessions
//
// Backend API Metrics:
//   - backend_api_operations_total: Counter of backend operations by service, operation, status
//   - backend_api_operation_duration_seconds: Histogram of backend operation durations
//
// Credential Metrics:
//   - credential_renewals_total: Counter of access token fetches by result
//   - credential_fetch_duration_seconds: Histogram of access token fetch durations
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for:
//   - MCP tool invocations (tool.<name>)
//   - Backend calls (backend.<service>.<operation>)
//   - Access token fetches (credential.fetch)
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: daraja-mcp)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "daraja-mcp",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordBackendAPIOperation(ctx, "daraja", "stk_push", "success", time.Since(start))
//	recorder.RecordToolInvocation(ctx, "stk_push", "success", time.Since(start))
package instrumentation
