package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/slotmatch/slotmatch/internal/instrumentation"
)

// MCPEndpoint is the path of the streamable-http transport.
const MCPEndpoint = "/mcp"

// HTTPServer serves an MCP server over streamable-http next to the health
// probes.
type HTTPServer struct {
	mcp        http.Handler
	health     *HealthChecker
	metrics    *instrumentation.Metrics
	httpServer *http.Server
	addr       string
}

// HTTPServerConfig configures NewHTTPServer.
type HTTPServerConfig struct {
	Addr string

	// DisableStreaming answers every request with a single JSON response
	// instead of an SSE stream, for clients that cannot read streams.
	DisableStreaming bool

	Metrics *instrumentation.Metrics
}

// NewHTTPServer wraps mcpSrv with the streamable-http transport.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, sc *ServerContext, config HTTPServerConfig) *HTTPServer {
	opts := []mcpserver.StreamableHTTPOption{mcpserver.WithEndpointPath(MCPEndpoint)}
	if config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	return &HTTPServer{
		mcp:     mcpserver.NewStreamableHTTPServer(mcpSrv, opts...),
		health:  NewHealthChecker(sc),
		metrics: config.Metrics,
		addr:    config.Addr,
	}
}

// Health returns the checker behind the probe endpoints.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Handler returns the routed and instrumented handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(MCPEndpoint, s.mcp)
	s.health.RegisterHealthEndpoints(mux)
	return RequestMetrics(s.metrics, mux)
}

// Start serves until Shutdown. ready, when non-nil, is closed once the
// listener is bound.
func (s *HTTPServer) Start(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if ready != nil {
		close(ready)
	}
	slog.Info("starting MCP HTTP server", "addr", s.addr, "endpoint", MCPEndpoint)
	return s.httpServer.Serve(ln)
}

// Shutdown marks the server unready and drains connections.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address once started.
func (s *HTTPServer) Addr() string {
	return s.addr
}

// RequestMetrics records every request on m. A nil m returns next unchanged.
func RequestMetrics(m *instrumentation.Metrics, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
