// Package cmd implements the command-line interface for daraja-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server over stdio or streamable HTTP
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools and prompts
package cmd
