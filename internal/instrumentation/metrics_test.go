package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var errTest = errors.New("boom")

func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// counterValue sums the data points of an int64 counter whose attributes
// contain every wanted key/value pair.
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string, want ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != name {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, not an int64 sum", name, md.Data)
			}
			for _, dp := range sum.DataPoints {
				if hasAll(dp.Attributes, want) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAll(set attribute.Set, want []attribute.KeyValue) bool {
	for _, kv := range want {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func TestMetrics_ToolInvocation(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordToolInvocation(ctx, "schedule_heatmap", StatusSuccess, 20*time.Millisecond)
	m.RecordToolInvocation(ctx, "schedule_heatmap", StatusSuccess, 30*time.Millisecond)
	m.RecordToolInvocation(ctx, "schedule_respond", StatusError, time.Millisecond)

	if got := counterValue(t, reader, "mcp_tool_invocations_total", attribute.String(attrTool, "schedule_heatmap")); got != 2 {
		t.Errorf("heatmap invocations = %d, want 2", got)
	}
	if got := counterValue(t, reader, "mcp_tool_invocations_total", attribute.String(attrStatus, StatusError)); got != 1 {
		t.Errorf("failed invocations = %d, want 1", got)
	}
}

func TestMetrics_StoreAndBusy(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordStoreOperation(ctx, BackendPostgres, "list_windows", StatusSuccess, time.Millisecond)
	m.RecordStoreOperation(ctx, BackendPostgres, "upsert_objection", StatusError, time.Millisecond)
	m.RecordBusyLookup(ctx, BusySourceICal, StatusSuccess, 100*time.Millisecond)

	if got := counterValue(t, reader, "store_operations_total", attribute.String(attrBackend, BackendPostgres)); got != 2 {
		t.Errorf("store operations = %d, want 2", got)
	}
	if got := counterValue(t, reader, "busy_lookups_total", attribute.String(attrSource, BusySourceICal)); got != 1 {
		t.Errorf("busy lookups = %d, want 1", got)
	}
}

func TestMetrics_ChangeEventsAndAggregation(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordChangeEvent(ctx, "objections", "INSERT")
	m.RecordChangeEvent(ctx, "objections", "UPDATE")
	m.RecordChangeEvent(ctx, "windows", "INSERT")
	m.RecordAggregationRun(ctx, AggregationHeatmap, "ev-1")

	if got := counterValue(t, reader, "change_events_total", attribute.String(attrTable, "objections")); got != 2 {
		t.Errorf("objection changes = %d, want 2", got)
	}
	if got := counterValue(t, reader, "aggregation_runs_total", attribute.String(attrAggregation, AggregationHeatmap)); got != 1 {
		t.Errorf("heatmap runs = %d, want 1", got)
	}
	if got := counterValue(t, reader, "aggregation_runs_total", attribute.String(attrEvent, "ev-1")); got != 0 {
		t.Error("event id must not be a label without detailed labels")
	}
}

func TestMetrics_DetailedLabels(t *testing.T) {
	m, reader := newTestMetrics(t, true)
	m.RecordAggregationRun(context.Background(), AggregationBestSlots, "ev-1")

	if got := counterValue(t, reader, "aggregation_runs_total", attribute.String(attrEvent, "ev-1")); got != 1 {
		t.Errorf("runs for ev-1 = %d, want 1", got)
	}
}

func TestMetrics_NilAndZeroAreNoOps(t *testing.T) {
	ctx := context.Background()
	for _, m := range []*Metrics{nil, {}} {
		m.RecordHTTPRequest(ctx, "GET", "/mcp", 200, time.Millisecond)
		m.RecordToolInvocation(ctx, "t", StatusSuccess, time.Millisecond)
		m.RecordStoreOperation(ctx, BackendMemory, "get_event", StatusSuccess, time.Millisecond)
		m.RecordBusyLookup(ctx, BusySourceNone, StatusSuccess, time.Millisecond)
		m.RecordChangeEvent(ctx, "windows", "DELETE")
		m.RecordAggregationRun(ctx, AggregationHeatmap, "")
		m.IncrementActiveSubscriptions(ctx)
		m.DecrementActiveSubscriptions(ctx)
	}
}
