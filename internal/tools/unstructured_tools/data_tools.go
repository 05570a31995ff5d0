package unstructured_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/daraja-mcp/internal/documents"
	"github.com/teemow/daraja-mcp/internal/httpapi"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
	"github.com/teemow/daraja-mcp/internal/server"
	"github.com/teemow/daraja-mcp/internal/sourcebucket"
	"github.com/teemow/daraja-mcp/internal/tools/common"
)

func registerDataTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	fetchDocumentsTool := mcp.NewTool("fetch_documents",
		mcp.WithDescription("Fetches the text of documents analyzed by workflow runs from the destination collection"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of documents to return (default: 100)"),
		),
	)
	s.AddTool(fetchDocumentsTool, common.InstrumentedToolHandlerWithService(
		"fetch_documents", instrumentation.ServiceMongoDB, instrumentation.OperationListDocuments, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFetchDocuments(ctx, request, sc)
		}))

	listSourceTool := mcp.NewTool("list_source_documents",
		mcp.WithDescription("Lists the objects in the S3 source bucket that a workflow would process"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of objects to return (default: 100)"),
		),
	)
	s.AddTool(listSourceTool, common.InstrumentedToolHandlerWithService(
		"list_source_documents", instrumentation.ServiceS3, instrumentation.OperationListObjects, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListSourceDocuments(ctx, request, sc)
		}))
}

func handleFetchDocuments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	limit, err := positiveLimit(request.GetArguments(), documents.DefaultLimit)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	store := sc.Documents()
	if store == nil {
		return common.ErrorResult(&httpapi.ConfigurationError{Op: "documents.fetch", Missing: []string{"MONGODB_URI"}}), nil
	}

	texts, err := store.Texts(ctx, int64(limit))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(texts)
}

func handleListSourceDocuments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	limit, err := positiveLimit(request.GetArguments(), sourcebucket.DefaultMaxObjects)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	lister := sc.SourceBucket()
	if lister == nil {
		return common.ErrorResult(&httpapi.ConfigurationError{Op: "sourcebucket.list", Missing: []string{"S3_REMOTE_URL"}}), nil
	}

	listing, err := lister.List(ctx, limit)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(listing)
}

func positiveLimit(args map[string]any, def int) (int, error) {
	limit, err := common.OptionalInt(args, "limit", def)
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		return 0, &httpapi.ValidationError{Field: "limit", Message: "must be a positive integer"}
	}
	return limit, nil
}
