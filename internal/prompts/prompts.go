package prompts

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

type promptEntry struct {
	prompt  mcp.Prompt
	handler mcpserver.PromptHandlerFunc
}

func register(s *mcpserver.MCPServer, entries []promptEntry) {
	for _, e := range entries {
		s.AddPrompt(e.prompt, e.handler)
	}
}

// Definitions returns every prompt this package registers, for
// documentation
func Definitions() []mcp.Prompt {
	entries := append(mpesaPrompts(), unstructuredPrompts()...)
	out := make([]mcp.Prompt, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.prompt)
	}
	return out
}

// requireArguments returns the trimmed values of names, failing on the
// first one that is missing or blank
func requireArguments(args map[string]string, names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		v := strings.TrimSpace(args[name])
		if v == "" {
			return nil, fmt.Errorf("argument %q is required", name)
		}
		out[name] = v
	}
	return out, nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return mcp.NewGetPromptResult(description, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
	})
}
