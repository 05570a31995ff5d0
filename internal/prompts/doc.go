// Package prompts provides MCP prompt templates that steer an assistant
// towards the payment and document workflow tools.
package prompts
