// Package common provides shared utilities for MCP tool implementations:
// the instrumentation wrapper, argument parsing and the structured error
// payload returned to clients.
package common
