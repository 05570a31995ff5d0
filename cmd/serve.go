package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/daraja-mcp/internal/config"
	"github.com/teemow/daraja-mcp/internal/credential"
	"github.com/teemow/daraja-mcp/internal/daraja"
	"github.com/teemow/daraja-mcp/internal/documents"
	"github.com/teemow/daraja-mcp/internal/httpapi"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
	"github.com/teemow/daraja-mcp/internal/logging"
	"github.com/teemow/daraja-mcp/internal/prompts"
	"github.com/teemow/daraja-mcp/internal/resources"
	"github.com/teemow/daraja-mcp/internal/server"
	"github.com/teemow/daraja-mcp/internal/sourcebucket"
	"github.com/teemow/daraja-mcp/internal/tools/mpesa_tools"
	"github.com/teemow/daraja-mcp/internal/tools/unstructured_tools"
	"github.com/teemow/daraja-mcp/internal/unstructured"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"

	shutdownTimeout = 30 * time.Second
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// ServeOptions collects the serve command flags
type ServeOptions struct {
	Debug     bool
	Transport string
	HTTPAddr  string
	EnvFile   string

	// RenewalMargin and RenewalFloor override DARAJA_RENEWAL_MARGIN and
	// DARAJA_RENEWAL_FLOOR when positive
	RenewalMargin time.Duration
	RenewalFloor  time.Duration

	Metrics MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts ServeOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide M-Pesa payment
and Unstructured workflow tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and /readyz

Configuration is read from the environment, optionally loaded from a dotenv
file (--env-file or ENV_FILE_PATH). Startup requires MPESA_CONSUMER_KEY,
MPESA_CONSUMER_SECRET and BASE_URL; the server fetches a Daraja access token
before it accepts any request and renews it in the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-enabled") && os.Getenv("METRICS_ENABLED") == "false" {
				opts.Metrics.Enabled = false
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					opts.Metrics.Addr = addr
				}
			}
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.Transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", "", "Path to a dotenv file to load. Can also use ENV_FILE_PATH env var.")
	cmd.Flags().DurationVar(&opts.RenewalMargin, "renewal-margin", 0, "Renew the access token this long before it expires (default 60s). Can also use DARAJA_RENEWAL_MARGIN env var.")
	cmd.Flags().DurationVar(&opts.RenewalFloor, "renewal-floor", 0, "Minimum delay between renewals and retry delay after a failed renewal (default 60s). Can also use DARAJA_RENEWAL_FLOOR env var.")

	cmd.Flags().BoolVar(&opts.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(parent context.Context, opts ServeOptions) error {
	if err := validateTransport(opts.Transport); err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}

	// Logs go to stderr; stdout carries the stdio transport
	logger := newLogger(opts.Debug)
	slog.SetDefault(logger)

	shutdownCtx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	env, err := config.Load(opts.EnvFile)
	if err != nil {
		return err
	}
	if err := env.Daraja().Validate(); err != nil {
		return err
	}
	renewal, err := renewalConfig(env, opts)
	if err != nil {
		return err
	}
	timeout, err := env.HTTPTimeout()
	if err != nil {
		return err
	}

	instrConfig, err := instrumentation.LoadConfig(env.Lookup)
	if err != nil {
		return fmt.Errorf("invalid instrumentation config: %w", err)
	}
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	clients := newClients(env, httpapi.NewHTTPClient(timeout))

	managerOpts := []credential.Option{credential.WithLogger(logger)}
	if provider.Enabled() {
		managerOpts = append(managerOpts, credential.WithRecorder(provider.Metrics()))
	}
	manager := credential.NewManager(clients.Daraja, renewal, managerOpts...)

	serverContext, err := server.NewServerContext(shutdownCtx, manager, clients, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := serverContext.Shutdown(ctx); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	// No request is served before a token is installed
	if err := manager.Start(shutdownCtx); err != nil {
		return err
	}

	mcpSrv := newMCPServer(serverContext)
	if err := registerAll(mcpSrv, serverContext); err != nil {
		return err
	}

	if opts.Transport != transportStdio && opts.Metrics.Enabled && provider.PrometheusEnabled() {
		metricsServer, err := startMetricsServer(opts.Metrics, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	switch opts.Transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts.HTTPAddr, logger)
	default:
		return runStdioServer(shutdownCtx, mcpSrv, logger)
	}
}

func validateTransport(transport string) error {
	switch transport {
	case transportStdio, transportStreamableHTTP:
		return nil
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", transport, transportStdio, transportStreamableHTTP)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// renewalConfig reads the renewal schedule from the environment and
// applies flag overrides
func renewalConfig(env *config.Env, opts ServeOptions) (credential.Config, error) {
	renewal, err := env.Renewal()
	if err != nil {
		return credential.Config{}, err
	}
	if opts.RenewalMargin > 0 {
		renewal.Margin = opts.RenewalMargin
	}
	if opts.RenewalFloor > 0 {
		renewal.Floor = opts.RenewalFloor
	}
	return renewal, nil
}

// newClients builds the backend clients. Per-call settings stay behind
// env lookups so a change to a merchant setting needs no restart.
func newClients(env *config.Env, httpClient *http.Client) server.Clients {
	d := env.Daraja()
	return server.Clients{
		Daraja: daraja.NewClient(daraja.Config{
			ConsumerKey:    d.ConsumerKey,
			ConsumerSecret: d.ConsumerSecret,
			BaseURL:        d.BaseURL,
			STK:            env.STK,
		}, daraja.WithHTTPClient(httpClient)),
		Unstructured: unstructured.NewClient(env.UnstructuredURL(), env.Unstructured,
			unstructured.WithHTTPClient(httpClient)),
		Documents:    documents.NewStore(env.Documents()),
		SourceBucket: sourcebucket.NewLister(env.SourceBucket),
	}
}

func newMCPServer(sc *server.ServerContext) *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("daraja-mcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
		mcpserver.WithHooks(server.SessionHooks(sc)),
	)
}

func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type registration struct {
		name     string
		register func() error
	}

	registrations := []registration{
		{
			name: "M-Pesa tools",
			register: func() error {
				return mpesa_tools.RegisterMpesaTools(mcpSrv, sc)
			},
		},
		{
			name: "Unstructured tools",
			register: func() error {
				return unstructured_tools.RegisterUnstructuredTools(mcpSrv, sc)
			},
		},
		{
			name: "prompts",
			register: func() error {
				prompts.RegisterMpesaPrompts(mcpSrv)
				prompts.RegisterUnstructuredPrompts(mcpSrv)
				return nil
			},
		},
		{
			name: "credential resources",
			register: func() error {
				return resources.RegisterCredentialResources(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}
	return nil
}

func startMetricsServer(cfg MetricsConfig, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", slog.String("addr", metricsServer.ListenAddr()))
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	stdio := mcpserver.NewStdioServer(mcpSrv)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, logger *slog.Logger) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, sc)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	ready := make(chan struct{})
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.StartWithReadySignal(addr, ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ready:
		logger.Info("streamable HTTP server started",
			slog.String("addr", httpServer.ListenAddr()),
			slog.String("mcp_endpoint", server.MCPEndpointPath))
	case err := <-serverDone:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
