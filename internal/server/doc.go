// Package server holds the runtime shared by the slotmatch MCP tools and the
// HTTP endpoints around them.
//
// ServerContext carries the collaborators every tool needs: the event store,
// the change feed, the calendar busy source, local identity and history, the
// configured time zone and the instrumentation recorders. The busy source is
// created lazily, so a missing Google token does not prevent startup.
//
// HTTPServer exposes the MCP streamable-http endpoint at /mcp next to the
// /healthz, /readyz and /healthz/detailed probes. MetricsServer serves
// Prometheus metrics on a dedicated port.
package server
