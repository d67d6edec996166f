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

	"github.com/slotmatch/slotmatch/internal/config"
	"github.com/slotmatch/slotmatch/internal/instrumentation"
	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/resources"
	"github.com/slotmatch/slotmatch/internal/server"
	"github.com/slotmatch/slotmatch/internal/tools/schedule_tools"
)

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// ServeConfig holds the settings of the serve command that are not part of
// config.Config.
type ServeConfig struct {
	Transport        string
	HTTPAddr         string
	ReadOnly         bool
	DisableStreaming bool

	// Migrate applies the Postgres schema before serving.
	Migrate bool

	// RetentionSchedule is the cron spec of the retention sweep. Empty
	// disables the sweep.
	RetentionSchedule string

	Metrics MetricsConfig
}

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		serveConfig   ServeConfig
		storeDriver   string
		databaseURL   string
		timezone      string
		busySource    string
		retentionDays int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide group scheduling
tools for AI assistants: create events with candidate windows, record which
slots participants cannot attend and read back the heatmap and best slots.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Storage:
  The in-memory store is used unless --store postgres (or SLOTMATCH_STORE)
  and --database-url (or DATABASE_URL) are given.

Safety Mode:
  Use --read-only to expose only tools that do not modify events or
  responses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			flags := cmd.Flags()
			if flags.Changed("store") {
				cfg.StoreDriver = storeDriver
			}
			if flags.Changed("database-url") {
				cfg.DatabaseURL = databaseURL
			}
			if flags.Changed("timezone") {
				cfg.Timezone = timezone
			}
			if flags.Changed("busy-source") {
				cfg.BusySource = busySource
			}
			if flags.Changed("retention-days") {
				cfg.RetentionDays = retentionDays
			}
			loadMetricsEnvVars(cmd, &serveConfig.Metrics)

			return runServe(cfg, serveConfig)
		},
	}

	cmd.Flags().StringVar(&serveConfig.Transport, "transport", TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&serveConfig.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&serveConfig.ReadOnly, "read-only", false, "Only register tools that do not modify events or responses")
	cmd.Flags().BoolVar(&serveConfig.DisableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&serveConfig.Migrate, "migrate", false, "Apply the Postgres schema before serving")
	cmd.Flags().StringVar(&serveConfig.RetentionSchedule, "retention-schedule", DefaultRetentionSchedule, "Cron schedule of the sweep that deletes expired events. Empty disables it.")

	cmd.Flags().StringVar(&storeDriver, "store", config.DriverMemory, "Event store: memory or postgres. Can also use SLOTMATCH_STORE env var.")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string. Can also use DATABASE_URL env var.")
	cmd.Flags().StringVar(&timezone, "timezone", config.DefaultTimezone, "Timezone all dates and times are interpreted in. Can also use SLOTMATCH_TIMEZONE env var.")
	cmd.Flags().StringVar(&busySource, "busy-source", config.BusyAuto, "Busy-time source: auto, none, ical or google. Can also use SLOTMATCH_BUSY_SOURCE env var.")
	cmd.Flags().IntVar(&retentionDays, "retention-days", config.DefaultRetentionDays, "Days after which events are deleted. Can also use SLOTMATCH_RETENTION_DAYS env var.")

	// Metrics server configuration
	cmd.Flags().BoolVar(&serveConfig.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&serveConfig.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadMetricsEnvVars applies METRICS_ENABLED and METRICS_ADDR unless the
// matching flag was set explicitly.
func loadMetricsEnvVars(cmd *cobra.Command, metrics *MetricsConfig) {
	if !cmd.Flags().Changed("metrics-enabled") {
		switch os.Getenv("METRICS_ENABLED") {
		case "true":
			metrics.Enabled = true
		case "false":
			metrics.Enabled = false
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metrics.Addr = addr
		}
	}
}

func runServe(cfg config.Config, serveConfig ServeConfig) error {
	switch serveConfig.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", serveConfig.Transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := provider.Shutdown(flushCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	if serveConfig.Transport != TransportStdio && serveConfig.Metrics.Enabled && provider.Enabled() {
		metricsServer, err := startMetricsServer(serveConfig.Metrics.Addr, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	a, err := openApp(shutdownCtx, cfg, provider.Metrics(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("error closing storage", logging.Err(err))
		}
	}()

	if serveConfig.Migrate {
		if err := migrateStore(shutdownCtx, a, logger); err != nil {
			return err
		}
	}

	serverContext, err := server.NewServerContext(shutdownCtx, a.serverOptions(shutdownCtx))
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	serverContext.SetMetrics(provider.Metrics())
	serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	if serveConfig.RetentionSchedule != "" {
		sweeper, err := startRetentionSweeper(shutdownCtx, a.store, serveConfig.RetentionSchedule, cfg.Retention(), a.loc, logger)
		if err != nil {
			return err
		}
		defer func() { <-sweeper.Stop().Done() }()
	}

	mcpSrv := mcpserver.NewMCPServer("slotmatch", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	logger.Info("starting slotmatch MCP server",
		slog.String("transport", serveConfig.Transport),
		slog.String("store", cfg.StoreDriver),
		slog.String("busy_source", cfg.ResolvedBusySource()),
		slog.String("timezone", a.loc.String()),
		slog.Bool("read_only", serveConfig.ReadOnly))

	if err := registerAllTools(mcpSrv, serverContext, serveConfig.ReadOnly); err != nil {
		return err
	}

	switch serveConfig.Transport {
	case TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, serveConfig, provider.Metrics(), logger)
	default:
		return runStdioServer(mcpSrv)
	}
}

// startMetricsServer starts the Prometheus endpoint and waits until it is
// listening.
func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
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
		logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Scheduling",
			register: func() error {
				return schedule_tools.RegisterScheduleTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Local Resources",
			register: func() error {
				return resources.RegisterLocalResources(mcpSrv, ctx)
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

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, serveConfig ServeConfig, metrics *instrumentation.Metrics, logger *slog.Logger) error {
	httpServer := server.NewHTTPServer(mcpSrv, sc, server.HTTPServerConfig{
		Addr:             serveConfig.HTTPAddr,
		DisableStreaming: serveConfig.DisableStreaming,
		Metrics:          metrics,
	})

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		logger.Info("HTTP server stopped normally")
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
