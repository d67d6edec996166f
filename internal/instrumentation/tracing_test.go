package instrumentation

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("schedule_respond").
		WithEvent("ev-1").
		WithWindow("").
		WithBackend(BackendMemory).
		WithReadOnly(false).
		Build()

	if len(attrs) != 4 {
		t.Fatalf("expected 4 attributes (empty window skipped), got %d", len(attrs))
	}
	got := make(map[string]any)
	for _, a := range attrs {
		got[string(a.Key)] = a.Value.AsInterface()
	}
	if got[SpanAttrTool] != "schedule_respond" || got[SpanAttrEvent] != "ev-1" || got[SpanAttrBackend] != BackendMemory || got[SpanAttrReadOnly] != false {
		t.Errorf("unexpected attributes: %v", got)
	}
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStartToolSpan(t *testing.T) {
	rec := withRecorder(t)

	ctx, span := StartToolSpan(context.Background(), "schedule_heatmap")
	if GetTraceID(ctx) == "" || GetSpanID(ctx) == "" {
		t.Error("expected trace and span ids in context")
	}
	EndSpan(span, nil)

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != "tool.schedule_heatmap" {
		t.Errorf("unexpected span name %q", ended[0].Name())
	}
	if ended[0].Status().Code != codes.Ok {
		t.Errorf("expected ok status, got %v", ended[0].Status())
	}
}

func TestEndSpan_Error(t *testing.T) {
	rec := withRecorder(t)

	_, span := StartSpan(context.Background(), "store.upsert")
	EndSpan(span, errTest)

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", ended[0].Status())
	}
	if len(ended[0].Events()) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
}

func TestTraceIDs_NoSpan(t *testing.T) {
	if GetTraceID(context.Background()) != "" || GetSpanID(context.Background()) != "" {
		t.Error("expected empty ids without a span")
	}
}
