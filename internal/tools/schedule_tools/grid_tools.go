package schedule_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/server"
	"github.com/slotmatch/slotmatch/internal/slotgrid"
	"github.com/slotmatch/slotmatch/internal/tools/common"
)

func registerGridTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	generateSlotsTool := mcp.NewTool("schedule_generate_slots",
		mcp.WithDescription("List the 30-minute slots between a start and an end time, end excluded"),
		mcp.WithString("startTime",
			mcp.Required(),
			mcp.Description("Start time (HH:MM)"),
		),
		mcp.WithString("endTime",
			mcp.Required(),
			mcp.Description("End time (HH:MM)"),
		),
	)
	s.AddTool(generateSlotsTool, common.InstrumentedToolHandler("schedule_generate_slots", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGenerateSlots(ctx, request)
	}))

	slotEndTimeTool := mcp.NewTool("schedule_slot_end_time",
		mcp.WithDescription("Compute when a meeting starting at a slot ends. Times wrap past midnight."),
		mcp.WithString("slot",
			mcp.Required(),
			mcp.Description("Slot start time (HH:MM)"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Meeting length in minutes. Defaults to the event's duration when eventId is given, otherwise 60."),
		),
		mcp.WithString("eventId",
			mcp.Description("Event whose duration to use"),
		),
	)
	s.AddTool(slotEndTimeTool, common.InstrumentedToolHandler("schedule_slot_end_time", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSlotEndTime(ctx, request, sc)
	}))
}

func handleGenerateSlots(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	start, err := common.RequireString(args, "startTime")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := common.RequireString(args, "endTime")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"startTime": start,
		"endTime":   end,
		"slots":     slotgrid.GenerateSlots(start, end),
	})
}

func handleSlotEndTime(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	slot, err := common.RequireString(args, "slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	def := schedule.DefaultDurationMinutes
	if eventID := common.StringArg(args, "eventId"); eventID != "" {
		event, err := sc.Store().GetEvent(ctx, eventID)
		if err != nil {
			return errorResult("get event", err), nil
		}
		def = event.DurationMinutes
	}
	duration, err := common.IntArg(args, "durationMinutes", def)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	end := slotgrid.SlotEndTime(slot, duration)
	if end == "" {
		return mcp.NewToolResultError(fmt.Sprintf("slot %q must be HH:MM", slot)), nil
	}
	return jsonResult(map[string]interface{}{
		"slot":            slot,
		"durationMinutes": duration,
		"endTime":         end,
	})
}
