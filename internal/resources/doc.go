// Package resources provides MCP resources: read-only data that MCP clients
// can fetch alongside the tools.
//
// daraja://credential/status reports the lifecycle state of the shared
// Daraja access token (state, fetch time, expiry, next renewal). It is safe
// to expose to any client because the token value is never part of it.
package resources
