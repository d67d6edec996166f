package schedule_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/slotmatch/slotmatch/internal/aggregate"
	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/server"
	"github.com/slotmatch/slotmatch/internal/slotgrid"
	"github.com/slotmatch/slotmatch/internal/tools/common"
)

type responseResult struct {
	Objection schedule.Objection `json:"objection"`
	Summary   aggregate.Summary  `json:"summary"`
}

func registerResponseTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	respondTool := mcp.NewTool("schedule_respond",
		mcp.WithDescription("Record the slots of a window you cannot attend. An empty list means every slot works. Answering again replaces your previous answer."),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event"),
		),
		mcp.WithString("windowId",
			mcp.Required(),
			mcp.Description("ID of the candidate window"),
		),
		mcp.WithString("participant",
			mcp.Description("Your name. Defaults to the display name set for this event; a given name becomes the new display name."),
		),
		mcp.WithString("ngSlots",
			mcp.Description("Comma-separated slot start times you cannot attend, e.g. '09:00,09:30'"),
		),
	)
	s.AddTool(respondTool, common.InstrumentedToolHandler("schedule_respond", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRespond(ctx, request, sc)
	}))

	toggleSlotTool := mcp.NewTool("schedule_toggle_slot",
		mcp.WithDescription("Flip one slot of a window between OK and NG for a participant. The first toggle turns a missing answer into a response."),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event"),
		),
		mcp.WithString("windowId",
			mcp.Required(),
			mcp.Description("ID of the candidate window"),
		),
		mcp.WithString("slot",
			mcp.Required(),
			mcp.Description("Slot start time (HH:MM)"),
		),
		mcp.WithString("participant",
			mcp.Description("Your name. Defaults to the display name set for this event."),
		),
	)
	s.AddTool(toggleSlotTool, common.InstrumentedToolHandler("schedule_toggle_slot", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleToggleSlot(ctx, request, sc)
	}))

	setNameTool := mcp.NewTool("schedule_set_name",
		mcp.WithDescription("Remember your display name for an event so later answers can omit it"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Display name"),
		),
	)
	s.AddTool(setNameTool, common.InstrumentedToolHandler("schedule_set_name", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSetName(ctx, request, sc)
	}))
}

func handleRespond(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequireString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	windowID, err := common.RequireString(args, "windowId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ngSlots, err := common.StringSliceArg(args, "ngSlots")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	participant, err := participantFor(ctx, sc, args, eventID)
	if err != nil {
		return errorResult("resolve participant", err), nil
	}

	window, err := findWindow(ctx, sc, eventID, windowID)
	if err != nil {
		return errorResult("find window", err), nil
	}
	for _, slot := range ngSlots {
		if !slotgrid.Covers(window, slot) {
			return mcp.NewToolResultError(fmt.Sprintf("slot %s is not part of window %s %s-%s", slot, window.Date, window.StartTime, window.EndTime)), nil
		}
	}

	obj, err := sc.Store().UpsertObjection(ctx, window.ID, participant, ngSlots)
	if err != nil {
		return errorResult("save response", err), nil
	}
	rememberName(ctx, sc, args, eventID)

	return jsonResult(responseResult{
		Objection: obj,
		Summary:   aggregate.ParticipantSummary(window, []schedule.Objection{obj}, obj.Participant),
	})
}

func handleToggleSlot(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequireString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	windowID, err := common.RequireString(args, "windowId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slot, err := common.RequireString(args, "slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	participant, err := participantFor(ctx, sc, args, eventID)
	if err != nil {
		return errorResult("resolve participant", err), nil
	}

	window, err := findWindow(ctx, sc, eventID, windowID)
	if err != nil {
		return errorResult("find window", err), nil
	}
	if !slotgrid.Covers(window, slot) {
		return mcp.NewToolResultError(fmt.Sprintf("slot %s is not part of window %s %s-%s", slot, window.Date, window.StartTime, window.EndTime)), nil
	}

	objections, err := sc.Store().ListObjections(ctx, []string{window.ID})
	if err != nil {
		return errorResult("load responses", err), nil
	}
	current := aggregate.ResponseOf(objections, window.ID, participant)

	obj, err := sc.Store().UpsertObjection(ctx, window.ID, participant, aggregate.Toggle(current.NGSlots(), slot))
	if err != nil {
		return errorResult("save response", err), nil
	}
	rememberName(ctx, sc, args, eventID)

	return jsonResult(responseResult{
		Objection: obj,
		Summary:   aggregate.ParticipantSummary(window, []schedule.Objection{obj}, obj.Participant),
	})
}

func handleSetName(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequireString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := sc.Identity().SetDisplayName(ctx, eventID, common.StringArg(args, "name"))
	if err != nil {
		return errorResult("set display name", err), nil
	}
	return jsonResult(map[string]string{
		"eventId":     eventID,
		"displayName": name,
	})
}

// rememberName stores an explicitly given participant as the event's display name.
func rememberName(ctx context.Context, sc *server.ServerContext, args map[string]interface{}, eventID string) {
	name := common.StringArg(args, "participant")
	if name == "" {
		return
	}
	if _, err := sc.Identity().SetDisplayName(ctx, eventID, name); err != nil {
		sc.Logger().Warn("failed to remember display name", logging.Event(eventID), logging.Err(err))
	}
}
