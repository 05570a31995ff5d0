package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/daraja-mcp/internal/instrumentation"
)

// MCPEndpointPath is where the streamable HTTP transport is mounted
const MCPEndpointPath = "/mcp"

// HTTPServer serves the MCP streamable HTTP transport next to the health
// endpoints.
type HTTPServer struct {
	mcpServer *mcpserver.MCPServer
	health    *HealthChecker
	metrics   func() *instrumentation.Metrics
	logger    *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listenAddr string
}

// NewHTTPServer creates a streamable HTTP server for mcpServer. Requests
// are counted through sc's metrics recorder.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, errors.New("mcp server is required")
	}
	if sc == nil {
		return nil, errors.New("server context is required")
	}
	return &HTTPServer{
		mcpServer: mcpServer,
		health:    NewHealthChecker(sc),
		metrics:   sc.Metrics,
		logger:    sc.Logger(),
	}, nil
}

// Health returns the health checker so callers can flip readiness during
// shutdown.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Handler builds the HTTP routing for the server
func (s *HTTPServer) Handler() http.Handler {
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpointPath),
	)

	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, streamable)
	s.health.RegisterHealthEndpoints(mux)
	return s.instrument(mux)
}

// Start listens on addr and serves until Shutdown
func (s *HTTPServer) Start(addr string) error {
	return s.StartWithReadySignal(addr, nil)
}

// StartWithReadySignal closes ready once the listener is bound
func (s *HTTPServer) StartWithReadySignal(addr string, ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.listenAddr = ln.Addr().String()
	s.mu.Unlock()

	s.logger.Info("starting MCP HTTP server",
		slog.String("addr", s.listenAddr),
		slog.String("endpoint", MCPEndpointPath))
	if ready != nil {
		close(ready)
	}
	return srv.Serve(ln)
}

// ListenAddr returns the bound address once started
func (s *HTTPServer) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

// Shutdown marks the server not ready and drains open requests
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics().RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// SessionHooks keeps the active sessions gauge in line with connected
// MCP clients.
func SessionHooks(sc *ServerContext) *mcpserver.Hooks {
	hooks := &mcpserver.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		sc.Metrics().IncrementActiveSessions(ctx)
		sc.Logger().Debug("mcp session registered", slog.String("session_id", session.SessionID()))
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		sc.Metrics().DecrementActiveSessions(ctx)
		sc.Logger().Debug("mcp session closed", slog.String("session_id", session.SessionID()))
	})
	return hooks
}
