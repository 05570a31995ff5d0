package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/daraja-mcp/internal/server"
)

// CredentialStatusURI is the URI of the credential status resource
const CredentialStatusURI = "daraja://credential/status"

// RegisterCredentialResources registers the credential status resource
func RegisterCredentialResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	statusResource := mcp.NewResource(
		CredentialStatusURI,
		"Daraja Credential Status",
		mcp.WithResourceDescription("Lifecycle state of the Daraja access token: when it was fetched, when it expires and when it will be renewed. The token itself is never included."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(statusResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCredentialStatus(ctx, request, sc)
	})

	return nil
}

func handleCredentialStatus(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(sc.CredentialStatus(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credential status: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
