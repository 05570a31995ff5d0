// Package server provides the MCP server context, health endpoints, the
// streamable HTTP transport and the dedicated metrics server.
//
// # Key Components
//
// ServerContext owns the credential manager and the backend clients. Tool
// handlers read the bearer token through CurrentToken and never see the
// manager itself.
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed. Readiness
// follows the credential lifecycle: the server is ready only while a token
// is installed (ACTIVE or RENEWING).
//
// HTTPServer mounts the streamable HTTP transport at /mcp next to the
// health endpoints and counts every request.
//
// MetricsServer exposes the Prometheus registry on its own port.
package server
