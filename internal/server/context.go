package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/daraja-mcp/internal/credential"
	"github.com/teemow/daraja-mcp/internal/daraja"
	"github.com/teemow/daraja-mcp/internal/documents"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
	"github.com/teemow/daraja-mcp/internal/sourcebucket"
	"github.com/teemow/daraja-mcp/internal/unstructured"
)

// Clients are the backend wrappers shared by every tool
type Clients struct {
	Daraja       *daraja.Client
	Unstructured *unstructured.Client
	Documents    *documents.Store
	SourceBucket *sourcebucket.Lister
}

// ServerContext holds the context for the MCP server. It owns the
// credential manager; tool handlers only ever see the current token.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	credentials *credential.Manager
	clients     Clients
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context. The credential manager
// must already be started; the context takes over its shutdown.
func NewServerContext(ctx context.Context, credentials *credential.Manager, clients Clients, logger *slog.Logger) (*ServerContext, error) {
	if credentials == nil {
		return nil, errors.New("credential manager is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		credentials: credentials,
		clients:     clients,
		logger:      logger,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Logger returns the server logger
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// CurrentToken returns the bearer token installed by the credential
// manager. It never blocks on a renewal.
func (sc *ServerContext) CurrentToken() string {
	return sc.credentials.CurrentToken()
}

// CredentialStatus returns a token-free snapshot of the credential manager
func (sc *ServerContext) CredentialStatus() credential.Status {
	return sc.credentials.Status()
}

// Daraja returns the payments client
func (sc *ServerContext) Daraja() *daraja.Client {
	return sc.clients.Daraja
}

// Unstructured returns the document pipeline client
func (sc *ServerContext) Unstructured() *unstructured.Client {
	return sc.clients.Unstructured
}

// Documents returns the analyzed documents store
func (sc *ServerContext) Documents() *documents.Store {
	return sc.clients.Documents
}

// SourceBucket returns the S3 source lister
func (sc *ServerContext) SourceBucket() *sourcebucket.Lister {
	return sc.clients.SourceBucket
}

// Metrics returns the metrics recorder, nil when instrumentation is off
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, nil when audit logging is off
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown stops credential renewal and releases backend connections. It
// is safe to call more than once.
func (sc *ServerContext) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	sc.mu.Unlock()

	var errs []error
	if err := sc.credentials.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if sc.clients.Documents != nil {
		if err := sc.clients.Documents.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("server context shutdown: %w", err)
	}
	return nil
}
