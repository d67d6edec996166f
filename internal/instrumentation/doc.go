// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the slotmatch server.
//
// # Metrics
//
// Server/HTTP:
//   - http_requests_total, http_request_duration_seconds
//
// MCP tools:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// Storage:
//   - store_operations_total, store_operation_duration_seconds
//
// Scheduling:
//   - busy_lookups_total, busy_lookup_duration_seconds
//   - change_events_total
//   - aggregation_runs_total
//   - active_subscriptions
//
// Participant names never become metric labels. Event ids are only attached
// when DetailedLabels is enabled.
//
// # Tracing
//
// Spans are created for tool invocations (tool.<name>) and can be started
// for any operation with StartSpan.
//
// # Configuration
//
// DefaultConfig reads the environment:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: slotmatch)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	m := provider.Metrics()
//	m.RecordToolInvocation(ctx, "schedule_heatmap", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
