package schedule_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/slotmatch/slotmatch/internal/busy"
	"github.com/slotmatch/slotmatch/internal/localstore"
	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/server"
	"github.com/slotmatch/slotmatch/internal/tools/common"
)

type recentEvent struct {
	schedule.Event
	RemainingDays int `json:"remainingDays"`
}

type createdEvent struct {
	localstore.HistoryItem
	RemainingDays int `json:"remainingDays"`
}

type recentEventsResult struct {
	RetentionDays int            `json:"retentionDays"`
	Events        []recentEvent  `json:"events"`
	Created       []createdEvent `json:"created"`
}

type busyTimesResult struct {
	Date             string   `json:"date"`
	Source           string   `json:"source"`
	Busy             []string `json:"busy"`
	WindowID         string   `json:"windowId,omitempty"`
	SuggestedNGSlots []string `json:"suggestedNgSlots,omitempty"`
}

func registerLocalTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	recentEventsTool := mcp.NewTool("schedule_recent_events",
		mcp.WithDescription("List the events of the retention period and the ones created from this machine, with the days left before each expires"),
	)
	s.AddTool(recentEventsTool, common.InstrumentedToolHandler("schedule_recent_events", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRecentEvents(ctx, sc)
	}))

	busyTimesTool := mcp.NewTool("schedule_busy_times",
		mcp.WithDescription("Look up your calendar's busy times for a day and, for a candidate window, the slots you probably cannot attend"),
		mcp.WithString("date",
			mcp.Description("Day to look up (YYYY-MM-DD). Defaults to the window's date when windowId is given."),
		),
		mcp.WithString("eventId",
			mcp.Description("Event of the window, used for its meeting length"),
		),
		mcp.WithString("windowId",
			mcp.Description("Candidate window to suggest NG slots for; requires eventId"),
		),
	)
	s.AddTool(busyTimesTool, common.InstrumentedToolHandler("schedule_busy_times", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleBusyTimes(ctx, request, sc)
	}))
}

func handleRecentEvents(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	now := sc.Now()
	history := sc.History()

	events, err := sc.Store().ListRecentEvents(ctx, history.Cutoff(now))
	if err != nil {
		return errorResult("list recent events", err), nil
	}

	result := recentEventsResult{
		RetentionDays: history.RemainingDays(now, now),
		Events:        make([]recentEvent, 0, len(events)),
		Created:       []createdEvent{},
	}
	for _, ev := range events {
		result.Events = append(result.Events, recentEvent{Event: ev, RemainingDays: history.RemainingDays(ev.CreatedAt, now)})
	}

	created, err := history.Recent(ctx, now)
	if err != nil {
		sc.Logger().Warn("failed to read local event history", logging.Err(err))
	}
	for _, item := range created {
		result.Created = append(result.Created, createdEvent{HistoryItem: item, RemainingDays: history.RemainingDays(item.CreatedAt, now)})
	}
	return jsonResult(result)
}

func handleBusyTimes(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	date := common.StringArg(args, "date")
	eventID := common.StringArg(args, "eventId")
	windowID := common.StringArg(args, "windowId")
	if windowID != "" && eventID == "" {
		return mcp.NewToolResultError("eventId is required with windowId"), nil
	}

	var (
		window   schedule.Window
		duration int
	)
	if windowID != "" {
		event, err := sc.Store().GetEvent(ctx, eventID)
		if err != nil {
			return errorResult("get event", err), nil
		}
		window, err = findWindow(ctx, sc, eventID, windowID)
		if err != nil {
			return errorResult("find window", err), nil
		}
		duration = event.DurationMinutes
		if date == "" {
			date = window.Date
		}
	}
	if date == "" {
		return mcp.NewToolResultError("date is required"), nil
	}

	src, err := sc.BusySource(ctx)
	if err != nil {
		return errorResult("open calendar", err), nil
	}
	intervals, err := src.BusyTimes(ctx, date)
	if err != nil {
		return errorResult("look up busy times", err), nil
	}

	result := busyTimesResult{
		Date:   date,
		Source: sc.BusyName(),
		Busy:   busy.FormatBusyTimes(intervals, sc.Location()),
	}
	if windowID != "" && window.Date == date {
		result.WindowID = window.ID
		result.SuggestedNGSlots = busy.SuggestNG(window, duration, intervals, sc.Location())
	}
	return jsonResult(result)
}
