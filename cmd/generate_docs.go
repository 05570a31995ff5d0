package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/daraja-mcp/internal/config"
	"github.com/teemow/daraja-mcp/internal/credential"
	"github.com/teemow/daraja-mcp/internal/httpapi"
	"github.com/teemow/daraja-mcp/internal/prompts"
	"github.com/teemow/daraja-mcp/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool and prompt documentation",
		Long: `Generate markdown documentation for all available MCP tools and prompts.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	// Nothing is fetched or called while documenting, so an empty
	// environment is enough
	env := config.NewEnv(func(string) string { return "" })
	clients := newClients(env, httpapi.NewHTTPClient(0))
	manager := credential.NewManager(clients.Daraja, credential.Config{})

	ctx := context.Background()
	serverContext, err := server.NewServerContext(ctx, manager, clients, nil)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown(ctx)
	}()

	mcpSrv := newMCPServer(serverContext)
	if err := registerAll(mcpSrv, serverContext); err != nil {
		return err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	markdown := generateToolsMarkdown(tools, prompts.Definitions())

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

func generateToolsMarkdown(tools []mcp.Tool, promptList []mcp.Prompt) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools and prompts available when running daraja-mcp as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	toolsByCategory := groupToolsByCategory(tools)

	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor(category)))
	}
	if len(promptList) > 0 {
		sb.WriteString(fmt.Sprintf("- [Prompts](#%s)\n", anchor("Prompts")))
	}
	sb.WriteString("\n")

	sb.WriteString("## Errors\n\n")
	sb.WriteString("Failed tool calls return a JSON error object instead of ending the session:\n\n")
	sb.WriteString("```json\n{\"error\": {\"type\": \"ConfigurationError\", \"message\": \"...\"}}\n```\n\n")
	sb.WriteString("`type` is one of `ConfigurationError`, `ValidationError`, `UpstreamError`, `NetworkError` or `InternalError`. ")
	sb.WriteString("M-Pesa failures add the upstream `status_code` and response `details`.\n\n")

	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))

		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	if len(promptList) > 0 {
		sb.WriteString("## Prompts\n\n")
		for _, p := range promptList {
			sb.WriteString(generatePromptMarkdown(p))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func anchor(heading string) string {
	return strings.ToLower(strings.ReplaceAll(heading, " ", "-"))
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)

	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		categories[category] = append(categories[category], tool)
	}

	return categories
}

func getCategoryFromToolName(name string) string {
	switch name {
	case "stk_push", "generate_qr_code":
		return "M-Pesa Tools"
	case "create_source", "create_destination", "create_workflow", "run_workflow", "get_workflow_details":
		return "Unstructured Workflow Tools"
	case "fetch_documents", "list_source_documents":
		return "Document Tools"
	default:
		return "Other"
	}
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))

	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		// Sort properties for consistent output
		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]any)
			if !ok {
				continue
			}

			requiredStr := "optional"
			if slices.Contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}

			sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, getPropertyType(propMap), requiredStr))
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			}
			if values := enumValues(propMap); len(values) > 0 {
				sb.WriteString(fmt.Sprintf(" One of: `%s`.", strings.Join(values, "`, `")))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func generatePromptMarkdown(p mcp.Prompt) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s\n\n", p.Name))
	if p.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", p.Description))
	}

	if len(p.Arguments) > 0 {
		sb.WriteString("**Arguments:**\n")
		for _, arg := range p.Arguments {
			requiredStr := "optional"
			if arg.Required {
				requiredStr = "required"
			}
			sb.WriteString(fmt.Sprintf("- `%s` (%s): %s\n", arg.Name, requiredStr, arg.Description))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func enumValues(prop map[string]any) []string {
	switch v := prop["enum"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}
