package unstructured_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/daraja-mcp/internal/httpapi"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
	"github.com/teemow/daraja-mcp/internal/server"
	"github.com/teemow/daraja-mcp/internal/tools/batch"
	"github.com/teemow/daraja-mcp/internal/tools/common"
)

// RegisterUnstructuredTools registers the workflow and document tools with
// the MCP server
func RegisterUnstructuredTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.Unstructured() == nil {
		return fmt.Errorf("unstructured client is not configured")
	}

	createSourceTool := mcp.NewTool("create_source",
		mcp.WithDescription("Creates a source connector that feeds documents from the configured S3 bucket into the Unstructured platform"),
		mcp.WithString("connector_name",
			mcp.Required(),
			mcp.Description("The name of the source connector to create"),
		),
	)
	s.AddTool(createSourceTool, common.InstrumentedToolHandlerWithService(
		"create_source", instrumentation.ServiceUnstructured, instrumentation.OperationCreateSource, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateSource(ctx, request, sc)
		}))

	createDestinationTool := mcp.NewTool("create_destination",
		mcp.WithDescription("Creates a destination connector that stores processed documents in the configured MongoDB collection"),
		mcp.WithString("connector_name",
			mcp.Required(),
			mcp.Description("The name of the destination connector to create"),
		),
	)
	s.AddTool(createDestinationTool, common.InstrumentedToolHandlerWithService(
		"create_destination", instrumentation.ServiceUnstructured, instrumentation.OperationCreateDestination, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateDestination(ctx, request, sc)
		}))

	createWorkflowTool := mcp.NewTool("create_workflow",
		mcp.WithDescription("Creates a workflow that partitions documents from the source connector, enriches them with named entities and writes them to the destination connector"),
		mcp.WithString("workflow_name",
			mcp.Required(),
			mcp.Description("The name of the workflow to create"),
		),
		mcp.WithString("source_id",
			mcp.Required(),
			mcp.Description("The id of the source connector"),
		),
		mcp.WithString("destination_id",
			mcp.Required(),
			mcp.Description("The id of the destination connector"),
		),
	)
	s.AddTool(createWorkflowTool, common.InstrumentedToolHandlerWithService(
		"create_workflow", instrumentation.ServiceUnstructured, instrumentation.OperationCreateWorkflow, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateWorkflow(ctx, request, sc)
		}))

	runWorkflowTool := mcp.NewTool("run_workflow",
		mcp.WithDescription("Starts a run of an existing workflow"),
		mcp.WithString("workflow_id",
			mcp.Required(),
			mcp.Description("The id of the workflow to run"),
		),
	)
	s.AddTool(runWorkflowTool, common.InstrumentedToolHandlerWithService(
		"run_workflow", instrumentation.ServiceUnstructured, instrumentation.OperationRunWorkflow, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRunWorkflow(ctx, request, sc)
		}))

	getWorkflowTool := mcp.NewTool("get_workflow_details",
		mcp.WithDescription("Gets the name, id and status of one or more workflows"),
		mcp.WithString("workflow_id",
			mcp.Required(),
			mcp.Description("Workflow ID (string) or array of workflow IDs"),
		),
	)
	s.AddTool(getWorkflowTool, common.InstrumentedToolHandlerWithService(
		"get_workflow_details", instrumentation.ServiceUnstructured, instrumentation.OperationGetWorkflow, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetWorkflowDetails(ctx, request, sc)
		}))

	registerDataTools(s, sc)
	return nil
}

func handleCreateSource(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	name, err := common.RequiredString(request.GetArguments(), "connector_name")
	if err != nil {
		return common.ErrorResult(err), nil
	}

	connector, err := sc.Unstructured().CreateSource(ctx, name)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Source Connector name: %s\nSource Connector id: %s", connector.Name, connector.ID)), nil
}

func handleCreateDestination(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	name, err := common.RequiredString(request.GetArguments(), "connector_name")
	if err != nil {
		return common.ErrorResult(err), nil
	}

	connector, err := sc.Unstructured().CreateDestination(ctx, name)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Connector name: %s\nConnector id: %s", connector.Name, connector.ID)), nil
}

func handleCreateWorkflow(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	fields := make(map[string]string, 3)
	for _, name := range []string{"workflow_name", "source_id", "destination_id"} {
		v, err := common.RequiredString(args, name)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		fields[name] = v
	}

	workflow, err := sc.Unstructured().CreateWorkflow(ctx, fields["workflow_name"], fields["source_id"], fields["destination_id"])
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(workflow.Summary()), nil
}

func handleRunWorkflow(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "workflow_id")
	if err != nil {
		return common.ErrorResult(err), nil
	}

	out, err := sc.Unstructured().RunWorkflow(ctx, id)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return mcp.NewToolResultText(out), nil
}

func handleGetWorkflowDetails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseStringOrArray(request.GetArguments()["workflow_id"], "workflow_id")
	if err != nil {
		return common.ErrorResult(&httpapi.ValidationError{Field: "workflow_id", Message: err.Error()}), nil
	}

	client := sc.Unstructured()
	details := func(ctx context.Context, id string) (string, error) {
		w, err := client.GetWorkflow(ctx, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Workflow name: %s\nWorkflow id: %s\nWorkflow status: %s", w.Name, w.ID, w.Status), nil
	}

	if len(ids) == 1 {
		text, err := details(ctx, ids[0])
		if err != nil {
			return common.ErrorResult(err), nil
		}
		return mcp.NewToolResultText(text), nil
	}

	results := batch.ProcessBatch(ctx, ids, batch.DefaultConcurrency, details)
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}
