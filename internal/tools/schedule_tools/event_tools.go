package schedule_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/slotmatch/slotmatch/internal/aggregate"
	"github.com/slotmatch/slotmatch/internal/live"
	"github.com/slotmatch/slotmatch/internal/localstore"
	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/server"
	"github.com/slotmatch/slotmatch/internal/slotgrid"
	"github.com/slotmatch/slotmatch/internal/tools/common"
)

const windowsDescription = "Candidate windows, e.g. '2025-01-10 09:00-12:00; 2025-01-11 13:00-17:00'. Times are HH:MM on the 30-minute grid."

type eventResult struct {
	Event   schedule.Event    `json:"event"`
	Windows []schedule.Window `json:"windows"`
}

type windowView struct {
	schedule.Window
	Slots   []string           `json:"slots"`
	NGSlots []string           `json:"ngSlots,omitempty"`
	Summary *aggregate.Summary `json:"summary,omitempty"`
}

type eventView struct {
	Event        schedule.Event `json:"event"`
	Windows      []windowView   `json:"windows"`
	Participants []string       `json:"participants"`
	DisplayName  string         `json:"displayName,omitempty"`
}

func registerEventReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	getEventTool := mcp.NewTool("schedule_get_event",
		mcp.WithDescription("Get an event with its candidate windows, the participants who responded and, when a display name is set, your own responses"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event"),
		),
	)
	s.AddTool(getEventTool, common.InstrumentedToolHandler("schedule_get_event", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetEvent(ctx, request, sc)
	}))
}

func registerEventWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	createEventTool := mcp.NewTool("schedule_create_event",
		mcp.WithDescription("Create a scheduling event, optionally with its candidate windows"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the meeting"),
		),
		mcp.WithString("description",
			mcp.Description("Optional description shown to participants"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Meeting length in minutes (default: 60)"),
		),
		mcp.WithString("windows",
			mcp.Description(windowsDescription),
		),
	)
	s.AddTool(createEventTool, common.InstrumentedToolHandler("schedule_create_event", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCreateEvent(ctx, request, sc)
	}))

	replaceWindowsTool := mcp.NewTool("schedule_replace_windows",
		mcp.WithDescription("Replace all candidate windows of an event. Every existing response is discarded with the old windows."),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event"),
		),
		mcp.WithString("windows",
			mcp.Required(),
			mcp.Description(windowsDescription),
		),
	)
	s.AddTool(replaceWindowsTool, common.InstrumentedToolHandler("schedule_replace_windows", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleReplaceWindows(ctx, request, sc)
	}))
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	title, err := common.RequireString(args, "title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	duration, err := common.IntArg(args, "durationMinutes", schedule.DefaultDurationMinutes)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inputs, err := parseWindows(args["windows"])
	if err != nil {
		return errorResult("parse windows", err), nil
	}

	event, err := sc.Store().CreateEvent(ctx, title, common.StringArg(args, "description"), duration)
	if err != nil {
		return errorResult("create event", err), nil
	}

	windows := []schedule.Window{}
	if len(inputs) > 0 {
		windows, err = sc.Store().ReplaceWindows(ctx, event.ID, inputs)
		if err != nil {
			return errorResult("create windows", err), nil
		}
	}

	item := localstore.HistoryItem{
		EventID:         event.ID,
		Title:           event.Title,
		DurationMinutes: event.DurationMinutes,
		CreatedAt:       event.CreatedAt,
	}
	if err := sc.History().Record(ctx, item); err != nil {
		// The event exists; a lost history entry only hides it from the local list.
		sc.Logger().Warn("failed to record event history", logging.Event(event.ID), logging.Err(err))
	}

	return jsonResult(eventResult{Event: event, Windows: windows})
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequireString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := sc.Store().GetEvent(ctx, eventID)
	if err != nil {
		return errorResult("get event", err), nil
	}
	snap, err := live.Load(ctx, sc.Store(), eventID)
	if err != nil {
		return errorResult("load event", err), nil
	}
	name, err := sc.Identity().DisplayName(ctx, eventID)
	if err != nil {
		sc.Logger().Warn("failed to read display name", logging.Event(eventID), logging.Err(err))
	}

	view := eventView{
		Event:        event,
		Windows:      make([]windowView, 0, len(snap.Windows)),
		Participants: aggregate.Participants(snap.Objections),
		DisplayName:  name,
	}
	for _, w := range snap.Windows {
		wv := windowView{Window: w, Slots: slotgrid.GenerateSlots(w.StartTime, w.EndTime)}
		if name != "" {
			summary := aggregate.ParticipantSummary(w, snap.Objections[w.ID], name)
			wv.Summary = &summary
			wv.NGSlots = aggregate.ResponseOf(snap.Objections[w.ID], w.ID, name).NGSlots()
		}
		view.Windows = append(view.Windows, wv)
	}
	return jsonResult(view)
}

func handleReplaceWindows(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequireString(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inputs, err := parseWindows(args["windows"])
	if err != nil {
		return errorResult("parse windows", err), nil
	}
	if len(inputs) == 0 {
		return mcp.NewToolResultError("windows is required"), nil
	}

	windows, err := sc.Store().ReplaceWindows(ctx, eventID, inputs)
	if err != nil {
		return errorResult("replace windows", err), nil
	}
	return jsonResult(map[string]interface{}{
		"eventId": eventID,
		"windows": windows,
	})
}
