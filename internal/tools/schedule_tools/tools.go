package schedule_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/slotmatch/slotmatch/internal/localstore"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/server"
	"github.com/slotmatch/slotmatch/internal/store"
	"github.com/slotmatch/slotmatch/internal/tools/common"
)

// RegisterScheduleTools registers all scheduling tools with the MCP server.
func RegisterScheduleTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registerGridTools(s, sc)
	registerEventReadTools(s, sc)
	registerAggregationTools(s, sc)
	registerLocalTools(s, sc)

	if readOnly {
		return nil
	}
	registerEventWriteTools(s, sc)
	registerResponseTools(s, sc)
	return nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult turns a collaborator error into a tool error. Validation and
// lookup failures are reported as is; anything else is worth a retry.
func errorResult(action string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, schedule.ErrInvalidEvent),
		errors.Is(err, schedule.ErrInvalidWindow),
		errors.Is(err, schedule.ErrInvalidObjection),
		errors.Is(err, localstore.ErrEmptyName):
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v. Please try again.", action, err))
	}
}

// parseWindows reads candidate windows given either as a string such as
// "2025-01-10 09:00-12:00; 2025-01-11 13:00-17:00" or as an array of those
// strings or of {date, startTime, endTime} objects.
func parseWindows(v interface{}) ([]schedule.WindowInput, error) {
	var items []interface{}
	switch w := v.(type) {
	case nil:
		return nil, nil
	case string:
		for _, part := range strings.FieldsFunc(w, func(r rune) bool { return r == ';' || r == ',' || r == '\n' }) {
			items = append(items, part)
		}
	case []interface{}:
		items = w
	default:
		return nil, fmt.Errorf("%w: windows must be a string or an array", schedule.ErrInvalidWindow)
	}

	out := make([]schedule.WindowInput, 0, len(items))
	for i, item := range items {
		var in schedule.WindowInput
		switch it := item.(type) {
		case string:
			if strings.TrimSpace(it) == "" {
				continue
			}
			parsed, err := parseWindowSpec(it)
			if err != nil {
				return nil, err
			}
			in = parsed
		case map[string]interface{}:
			in = schedule.WindowInput{
				Date:      common.StringArg(it, "date"),
				StartTime: common.StringArg(it, "startTime"),
				EndTime:   common.StringArg(it, "endTime"),
			}
		default:
			return nil, fmt.Errorf("%w: windows[%d] has an unsupported type", schedule.ErrInvalidWindow, i)
		}
		if err := schedule.ValidateWindowInput(in); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// parseWindowSpec parses "YYYY-MM-DD HH:MM-HH:MM".
func parseWindowSpec(s string) (schedule.WindowInput, error) {
	date, span, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return schedule.WindowInput{}, fmt.Errorf("%w: %q must look like 2025-01-10 09:00-12:00", schedule.ErrInvalidWindow, s)
	}
	start, end, ok := strings.Cut(strings.TrimSpace(span), "-")
	if !ok {
		return schedule.WindowInput{}, fmt.Errorf("%w: %q must look like 2025-01-10 09:00-12:00", schedule.ErrInvalidWindow, s)
	}
	return schedule.WindowInput{
		Date:      date,
		StartTime: strings.TrimSpace(start),
		EndTime:   strings.TrimSpace(end),
	}, nil
}

// findWindow returns the window of the event with the given id.
func findWindow(ctx context.Context, sc *server.ServerContext, eventID, windowID string) (schedule.Window, error) {
	windows, err := sc.Store().ListWindows(ctx, eventID)
	if err != nil {
		return schedule.Window{}, err
	}
	for _, w := range windows {
		if w.ID == windowID {
			return w, nil
		}
	}
	return schedule.Window{}, fmt.Errorf("window %q of event %q: %w", windowID, eventID, store.ErrNotFound)
}

// participantFor returns the participant argument, falling back to the
// display name stored for the event.
func participantFor(ctx context.Context, sc *server.ServerContext, args map[string]interface{}, eventID string) (string, error) {
	if p := common.StringArg(args, "participant"); p != "" {
		return p, nil
	}
	name, err := sc.Identity().DisplayName(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("failed to read display name: %w", err)
	}
	if name == "" {
		return "", fmt.Errorf("%w: participant is required until a display name is set with schedule_set_name", schedule.ErrInvalidObjection)
	}
	return name, nil
}
