package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/slotmatch/slotmatch/internal/instrumentation"
	"github.com/slotmatch/slotmatch/internal/server"
)

// errToolResult marks a call that returned an error result rather than a Go error.
var errToolResult = errors.New("tool returned an error result")

// InstrumentedToolHandler wraps a tool handler with a span, metrics and an
// audit entry. The eventId and participant arguments, when present, are
// attached to the audit entry.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		eventID := StringArg(args, "eventId")

		attrs := instrumentation.NewSpanAttributeBuilder().
			WithEvent(eventID).
			WithWindow(StringArg(args, "windowId")).
			Build()
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs...)

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithEvent(eventID).
			WithParticipant(StringArg(args, "participant"))

		result, err := handler(ctx, request)
		duration := time.Since(start)

		failure := err
		if failure == nil && result != nil && result.IsError {
			failure = errToolResult
		}
		instrumentation.EndSpan(span, failure)
		invocation.Complete(failure == nil, err)

		if metrics := sc.Metrics(); metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, instrumentation.Status(failure), duration)
		}
		if auditLogger := sc.AuditLogger(); auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}
