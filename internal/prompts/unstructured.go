package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterUnstructuredPrompts registers the workflow prompts with the MCP server
func RegisterUnstructuredPrompts(s *mcpserver.MCPServer) {
	register(s, unstructuredPrompts())
}

func unstructuredPrompts() []promptEntry {
	workflowPrompt := mcp.NewPrompt("create_and_run_workflow_prompt",
		mcp.WithPromptDescription("Guides the assistant through creating source and destination connectors, then creating and running a workflow"),
		mcp.WithArgument("user_input",
			mcp.ArgumentDescription("What the user wants to achieve"),
			mcp.RequiredArgument(),
		),
	)
	return []promptEntry{{prompt: workflowPrompt, handler: handleCreateAndRunWorkflowPrompt}}
}

func handleCreateAndRunWorkflowPrompt(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args, err := requireArguments(request.Params.Arguments, "user_input")
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("The user wants to achieve %s. Assist them by creating a source connector and a destination connector, then setting up the workflow and executing it.",
		args["user_input"])
	return userPrompt("Create and run an Unstructured workflow", text), nil
}
