package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod      = "method"
	attrPath        = "path"
	attrStatus      = "status"
	attrOperation   = "operation"
	attrBackend     = "backend"
	attrSource      = "source"
	attrTool        = "tool"
	attrTable       = "table"
	attrKind        = "kind"
	attrAggregation = "aggregation"
	attrEvent       = "event_id"
)

var (
	latencyBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0}
	remoteBuckets  = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}
)

// Metrics records slotmatch metrics. A zero or nil Metrics is a no-op, which
// is what a disabled Provider hands out.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	storeOperationsTotal   metric.Int64Counter
	storeOperationDuration metric.Float64Histogram

	busyLookupsTotal   metric.Int64Counter
	busyLookupDuration metric.Float64Histogram

	changeEventsTotal    metric.Int64Counter
	aggregationRunsTotal metric.Int64Counter
	activeSubscriptions  metric.Int64UpDownCounter

	detailedLabels bool
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}
	var err error

	counter := func(dst *metric.Int64Counter, name, desc, unit string) {
		if err != nil {
			return
		}
		*dst, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			err = fmt.Errorf("failed to create %s counter: %w", name, err)
		}
	}
	histogram := func(dst *metric.Float64Histogram, name, desc string, buckets []float64) {
		if err != nil {
			return
		}
		*dst, err = meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(buckets...),
		)
		if err != nil {
			err = fmt.Errorf("failed to create %s histogram: %w", name, err)
		}
	}

	counter(&m.httpRequestsTotal, "http_requests_total", "Total number of HTTP requests", "{request}")
	histogram(&m.httpRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds", latencyBuckets)
	counter(&m.toolInvocationsTotal, "mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}")
	histogram(&m.toolDuration, "mcp_tool_duration_seconds", "MCP tool execution duration in seconds", remoteBuckets)
	counter(&m.storeOperationsTotal, "store_operations_total", "Total number of storage operations", "{operation}")
	histogram(&m.storeOperationDuration, "store_operation_duration_seconds", "Storage operation duration in seconds", latencyBuckets)
	counter(&m.busyLookupsTotal, "busy_lookups_total", "Total number of calendar busy-time lookups", "{lookup}")
	histogram(&m.busyLookupDuration, "busy_lookup_duration_seconds", "Calendar busy-time lookup duration in seconds", remoteBuckets)
	counter(&m.changeEventsTotal, "change_events_total", "Total number of change-feed events applied", "{event}")
	counter(&m.aggregationRunsTotal, "aggregation_runs_total", "Total number of heatmap and best-slot computations", "{run}")
	if err != nil {
		return nil, err
	}

	m.activeSubscriptions, err = meter.Int64UpDownCounter("active_subscriptions",
		metric.WithDescription("Number of open change-feed subscriptions"),
		metric.WithUnit("{subscription}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_subscriptions gauge: %w", err)
	}
	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records an MCP tool invocation.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStoreOperation records one call into a storage backend.
func (m *Metrics) RecordStoreOperation(ctx context.Context, backend, operation, status string, duration time.Duration) {
	if m == nil || m.storeOperationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrBackend, backend),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.storeOperationsTotal.Add(ctx, 1, attrs)
	m.storeOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordBusyLookup records one busy-time query against a calendar source.
func (m *Metrics) RecordBusyLookup(ctx context.Context, source, status string, duration time.Duration) {
	if m == nil || m.busyLookupsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrSource, source),
		attribute.String(attrStatus, status),
	)
	m.busyLookupsTotal.Add(ctx, 1, attrs)
	m.busyLookupDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordChangeEvent counts a change-feed event. The signature matches what
// the live watcher expects from its recorder.
func (m *Metrics) RecordChangeEvent(ctx context.Context, table, kind string) {
	if m == nil || m.changeEventsTotal == nil {
		return
	}
	m.changeEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrTable, table),
		attribute.String(attrKind, kind),
	))
}

// RecordAggregationRun counts a heatmap or best-slot computation.
func (m *Metrics) RecordAggregationRun(ctx context.Context, aggregation, eventID string) {
	if m == nil || m.aggregationRunsTotal == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(attrAggregation, aggregation)}
	if m.detailedLabels && eventID != "" {
		attrs = append(attrs, attribute.String(attrEvent, eventID))
	}
	m.aggregationRunsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// IncrementActiveSubscriptions marks a change-feed subscription as opened.
func (m *Metrics) IncrementActiveSubscriptions(ctx context.Context) {
	if m == nil || m.activeSubscriptions == nil {
		return
	}
	m.activeSubscriptions.Add(ctx, 1)
}

// DecrementActiveSubscriptions marks a change-feed subscription as closed.
func (m *Metrics) DecrementActiveSubscriptions(ctx context.Context) {
	if m == nil || m.activeSubscriptions == nil {
		return
	}
	m.activeSubscriptions.Add(ctx, -1)
}

// Status maps an error to StatusSuccess or StatusError.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
