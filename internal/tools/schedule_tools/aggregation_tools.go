package schedule_tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/slotmatch/slotmatch/internal/aggregate"
	"github.com/slotmatch/slotmatch/internal/instrumentation"
	"github.com/slotmatch/slotmatch/internal/live"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/server"
	"github.com/slotmatch/slotmatch/internal/slotgrid"
	"github.com/slotmatch/slotmatch/internal/tools/common"
)

const (
	formatJSON = "json"
	formatText = "text"
)

type bestSlot struct {
	aggregate.RankedSlot
	EndTime string `json:"endTime"`
}

type bestSlotsResult struct {
	EventID         string     `json:"eventId"`
	DurationMinutes int        `json:"durationMinutes"`
	Participants    []string   `json:"participants"`
	Slots           []bestSlot `json:"slots"`
}

func registerAggregationTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	heatmapTool := mcp.NewTool("schedule_heatmap",
		mcp.WithDescription("Show how many respondents can attend each slot of each candidate window"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'text' for a table"),
		),
	)
	s.AddTool(heatmapTool, common.InstrumentedToolHandler("schedule_heatmap", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleHeatmap(ctx, request, sc)
	}))

	bestSlotsTool := mcp.NewTool("schedule_best_slots",
		mcp.WithDescription("List the slots nobody objected to, most respondents first"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of slots to return (default: 10)"),
		),
	)
	s.AddTool(bestSlotsTool, common.InstrumentedToolHandler("schedule_best_slots", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleBestSlots(ctx, request, sc)
	}))
}

// loadEvent fetches the event and a fresh snapshot of its responses.
func loadEvent(ctx context.Context, sc *server.ServerContext, eventID string) (schedule.Event, live.Snapshot, error) {
	event, err := sc.Store().GetEvent(ctx, eventID)
	if err != nil {
		return schedule.Event{}, live.Snapshot{}, err
	}
	snap, err := live.Load(ctx, sc.Store(), eventID)
	if err != nil {
		return schedule.Event{}, live.Snapshot{}, err
	}
	return event, snap, nil
}

func handleHeatmap(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequireString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := strings.ToLower(common.StringArg(args, "format"))
	if format == "" {
		format = formatJSON
	}
	if format != formatJSON && format != formatText {
		return mcp.NewToolResultError("format must be 'json' or 'text'"), nil
	}

	_, snap, err := loadEvent(ctx, sc, eventID)
	if err != nil {
		return errorResult("load event", err), nil
	}
	hm := snap.Heatmap()
	sc.Metrics().RecordAggregationRun(ctx, instrumentation.AggregationHeatmap, eventID)

	if format == formatJSON {
		return jsonResult(hm)
	}
	var sb strings.Builder
	if err := aggregate.RenderText(&sb, hm); err != nil {
		return errorResult("render heatmap", err), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func handleBestSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequireString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, err := common.IntArg(args, "limit", aggregate.DefaultTop)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, snap, err := loadEvent(ctx, sc, eventID)
	if err != nil {
		return errorResult("load event", err), nil
	}
	ranked := snap.Best(limit)
	sc.Metrics().RecordAggregationRun(ctx, instrumentation.AggregationBestSlots, eventID)

	result := bestSlotsResult{
		EventID:         eventID,
		DurationMinutes: event.DurationMinutes,
		Participants:    aggregate.Participants(snap.Objections),
		Slots:           make([]bestSlot, 0, len(ranked)),
	}
	for _, r := range ranked {
		result.Slots = append(result.Slots, bestSlot{
			RankedSlot: r,
			EndTime:    slotgrid.SlotEndTime(r.Slot, event.DurationMinutes),
		})
	}
	return jsonResult(result)
}
