package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for every span in this module
const TracerName = "github.com/teemow/daraja-mcp"

// Span attribute keys
const (
	SpanAttrTool      = "mcp.tool"
	SpanAttrService   = "backend.service"
	SpanAttrOperation = "backend.operation"

	// SpanAttrResourceType and SpanAttrResourceID identify the backend
	// object a call acts on, e.g. workflow / wf-123
	SpanAttrResourceType = "backend.resource_type"
	SpanAttrResourceID   = "backend.resource_id"
)

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartSpan starts an internal span. Callers end it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts the server span "tool.<name>" for an MCP tool call.
func StartToolSpan(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(attribute.String(SpanAttrTool, toolName)),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartBackendSpan starts the client span "backend.<service>.<operation>".
func StartBackendSpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	}, attrs...)

	return tracer().Start(ctx, "backend."+service+"."+operation,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// ResourceAttributes describes the backend object a call targets. Empty
// values are left out.
func ResourceAttributes(resourceType, resourceID string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if resourceType != "" {
		attrs = append(attrs, attribute.String(SpanAttrResourceType, resourceType))
	}
	if resourceID != "" {
		attrs = append(attrs, attribute.String(SpanAttrResourceID, resourceID))
	}
	return attrs
}

// SetSpanError records err on span and marks it failed. A nil err is ignored.
func SetSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanSuccess marks span OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
