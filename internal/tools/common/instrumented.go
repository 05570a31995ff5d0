package common

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/daraja-mcp/internal/instrumentation"
	"github.com/teemow/daraja-mcp/internal/server"
)

var errToolResult = errors.New("tool returned an error result")

// ToolHandler is the mcp-go tool handler signature
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandlerWithService wraps a tool handler with a tool span,
// metrics and audit logging.
//
// This handler records both:
// - MCP tool invocation metrics (mcp_tool_invocations_total, mcp_tool_duration_seconds)
// - Backend operation metrics (backend_api_operations_total, backend_api_operation_duration_seconds)
//
// The backend metrics are skipped when serviceName is empty.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("stk_push", "daraja", "stk_push", sc, handler))
func InstrumentedToolHandlerWithService(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		args := request.GetArguments()
		invocation := instrumentation.StartInvocation(ctx, toolName)
		invocation.Phone = PhoneFromArgs(args)
		invocation.Reference = ReferenceFromArgs(args)
		invocation.Service = serviceName
		invocation.Operation = operation

		result, err := handler(ctx, request)
		invocation.Finish(err, result != nil && result.IsError)

		switch {
		case err != nil:
			instrumentation.SetSpanError(span, err)
		case invocation.Failed:
			instrumentation.SetSpanError(span, errToolResult)
		default:
			instrumentation.SetSpanSuccess(span)
		}

		status := invocation.Status()
		metrics.RecordToolInvocationWithReference(ctx, toolName, status, invocation.Reference, invocation.Duration)
		if serviceName != "" {
			metrics.RecordBackendAPIOperation(ctx, serviceName, operation, status, invocation.Duration)
		}
		auditLogger.Log(ctx, invocation)

		return result, err
	}
}
