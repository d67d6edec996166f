package schedule_tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotmatch/slotmatch/internal/busy"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/server"
	"github.com/slotmatch/slotmatch/internal/store/memory"
)

var created = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	sc    *server.ServerContext
	tools map[string]*mcpserver.ServerTool
}

func newFixture(t *testing.T, readOnly bool, opts server.Options) *fixture {
	t.Helper()
	if opts.Store == nil {
		opts.Store = memory.New(memory.WithClock(func() time.Time { return created }))
	}
	sc, err := server.NewServerContext(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	sc.SetClock(func() time.Time { return created })

	s := mcpserver.NewMCPServer("test-server", "1.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterScheduleTools(s, sc, readOnly))
	return &fixture{sc: sc, tools: s.ListTools()}
}

func (f *fixture) call(t *testing.T, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	tool, ok := f.tools[name]
	require.True(t, ok, "tool %s is not registered", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

// ok calls a tool that must succeed and decodes its JSON result into v.
func (f *fixture) ok(t *testing.T, name string, args map[string]interface{}, v interface{}) {
	t.Helper()
	res := f.call(t, name, args)
	require.False(t, res.IsError, "%s failed: %s", name, text(t, res))
	if v != nil {
		require.NoError(t, json.Unmarshal([]byte(text(t, res)), v))
	}
}

// fails calls a tool that must return an error result and returns its message.
func (f *fixture) fails(t *testing.T, name string, args map[string]interface{}) string {
	t.Helper()
	res := f.call(t, name, args)
	require.True(t, res.IsError, "%s unexpectedly succeeded: %s", name, text(t, res))
	return text(t, res)
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

// createEvent creates an event with one 09:00-11:00 window.
func (f *fixture) createEvent(t *testing.T) (schedule.Event, schedule.Window) {
	t.Helper()
	var res eventResult
	f.ok(t, "schedule_create_event", map[string]interface{}{
		"title":   "Sprint review",
		"windows": "2025-03-01 09:00-11:00",
	}, &res)
	require.Len(t, res.Windows, 1)
	return res.Event, res.Windows[0]
}

func TestRegisterScheduleTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{
			name:     "read-write",
			readOnly: false,
			want: []string{
				"schedule_best_slots", "schedule_busy_times", "schedule_create_event",
				"schedule_generate_slots", "schedule_get_event", "schedule_heatmap",
				"schedule_recent_events", "schedule_replace_windows", "schedule_respond",
				"schedule_set_name", "schedule_slot_end_time", "schedule_toggle_slot",
			},
		},
		{
			name:     "read-only",
			readOnly: true,
			want: []string{
				"schedule_best_slots", "schedule_busy_times", "schedule_generate_slots",
				"schedule_get_event", "schedule_heatmap", "schedule_recent_events",
				"schedule_slot_end_time",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.readOnly, server.Options{})
			names := make([]string, 0, len(f.tools))
			for name := range f.tools {
				names = append(names, name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t, false, server.Options{})

	var res eventResult
	f.ok(t, "schedule_create_event", map[string]interface{}{
		"title":           "Planning",
		"description":     "Q2",
		"durationMinutes": float64(30),
		"windows":         "2025-03-02 14:00-15:00; 2025-03-01 09:00-10:00",
	}, &res)

	assert.Equal(t, "Planning", res.Event.Title)
	assert.Equal(t, 30, res.Event.DurationMinutes)
	require.Len(t, res.Windows, 2)
	assert.Equal(t, "2025-03-01", res.Windows[0].Date)

	items, err := f.sc.History().Recent(context.Background(), created)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, res.Event.ID, items[0].EventID)
}

func TestCreateEvent_WindowObjects(t *testing.T) {
	f := newFixture(t, false, server.Options{})

	var res eventResult
	f.ok(t, "schedule_create_event", map[string]interface{}{
		"title": "Planning",
		"windows": []interface{}{
			map[string]interface{}{"date": "2025-03-01", "startTime": "09:00", "endTime": "10:00"},
		},
	}, &res)
	assert.Equal(t, schedule.DefaultDurationMinutes, res.Event.DurationMinutes)
	assert.Len(t, res.Windows, 1)
}

func TestCreateEvent_Invalid(t *testing.T) {
	f := newFixture(t, false, server.Options{})

	assert.Contains(t, f.fails(t, "schedule_create_event", map[string]interface{}{}), "title is required")
	assert.Contains(t, f.fails(t, "schedule_create_event", map[string]interface{}{
		"title":   "Planning",
		"windows": "2025-03-01 10:00-09:00",
	}), "invalid window")
	assert.Contains(t, f.fails(t, "schedule_create_event", map[string]interface{}{
		"title":   "Planning",
		"windows": "tomorrow morning",
	}), "invalid window")

	// Nothing was created by the rejected calls.
	events, err := f.sc.Store().ListRecentEvents(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestGetEvent(t *testing.T) {
	f := newFixture(t, false, server.Options{})
	event, window := f.createEvent(t)

	f.ok(t, "schedule_respond", map[string]interface{}{
		"eventId":     event.ID,
		"windowId":    window.ID,
		"participant": "Alice",
		"ngSlots":     "09:30",
	}, nil)

	var view eventView
	f.ok(t, "schedule_get_event", map[string]interface{}{"eventId": event.ID}, &view)
	assert.Equal(t, event.ID, view.Event.ID)
	assert.Equal(t, []string{"Alice"}, view.Participants)
	assert.Equal(t, "Alice", view.DisplayName)
	require.Len(t, view.Windows, 1)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, view.Windows[0].Slots)
	assert.Equal(t, []string{"09:30"}, view.Windows[0].NGSlots)
	require.NotNil(t, view.Windows[0].Summary)
	assert.Equal(t, 3, view.Windows[0].Summary.OKCount)

	assert.Contains(t, f.fails(t, "schedule_get_event", map[string]interface{}{"eventId": "missing"}), "not found")
}

func TestRespondAndBestSlots(t *testing.T) {
	f := newFixture(t, false, server.Options{})
	event, window := f.createEvent(t)

	var alice responseResult
	f.ok(t, "schedule_respond", map[string]interface{}{
		"eventId":     event.ID,
		"windowId":    window.ID,
		"participant": "Alice",
		"ngSlots":     []interface{}{"09:30"},
	}, &alice)
	assert.Equal(t, []string{"09:30"}, alice.Objection.NGSlots)
	assert.Equal(t, 3, alice.Summary.OKCount)
	assert.Equal(t, 4, alice.Summary.Total)

	f.ok(t, "schedule_respond", map[string]interface{}{
		"eventId":     event.ID,
		"windowId":    window.ID,
		"participant": "Bob",
	}, nil)

	var best bestSlotsResult
	f.ok(t, "schedule_best_slots", map[string]interface{}{"eventId": event.ID}, &best)
	assert.Equal(t, []string{"Alice", "Bob"}, best.Participants)
	require.Len(t, best.Slots, 3)
	for i, slot := range []string{"09:00", "10:00", "10:30"} {
		assert.Equal(t, slot, best.Slots[i].Slot)
		assert.Equal(t, 2, best.Slots[i].OKCount)
	}
	assert.Equal(t, "10:00", best.Slots[0].EndTime)

	f.ok(t, "schedule_best_slots", map[string]interface{}{"eventId": event.ID, "limit": float64(1)}, &best)
	assert.Len(t, best.Slots, 1)
}

func TestRespond_Rejects(t *testing.T) {
	f := newFixture(t, false, server.Options{})
	event, window := f.createEvent(t)

	assert.Contains(t, f.fails(t, "schedule_respond", map[string]interface{}{
		"eventId":  event.ID,
		"windowId": window.ID,
	}), "participant is required")

	assert.Contains(t, f.fails(t, "schedule_respond", map[string]interface{}{
		"eventId":     event.ID,
		"windowId":    "nope",
		"participant": "Alice",
	}), "not found")

	assert.Contains(t, f.fails(t, "schedule_respond", map[string]interface{}{
		"eventId":     event.ID,
		"windowId":    window.ID,
		"participant": "Alice",
		"ngSlots":     "12:00",
	}), "not part of window")
}

func TestToggleSlot_UsesDisplayName(t *testing.T) {
	f := newFixture(t, false, server.Options{})
	event, window := f.createEvent(t)

	f.ok(t, "schedule_set_name", map[string]interface{}{"eventId": event.ID, "name": "  Carol "}, nil)

	args := map[string]interface{}{"eventId": event.ID, "windowId": window.ID, "slot": "10:00"}

	var res responseResult
	f.ok(t, "schedule_toggle_slot", args, &res)
	assert.Equal(t, "Carol", res.Objection.Participant)
	assert.Equal(t, []string{"10:00"}, res.Objection.NGSlots)

	f.ok(t, "schedule_toggle_slot", args, &res)
	assert.Empty(t, res.Objection.NGSlots)
	assert.Equal(t, 4, res.Summary.OKCount)

	objections, err := f.sc.Store().ListObjections(context.Background(), []string{window.ID})
	require.NoError(t, err)
	assert.Len(t, objections, 1)

	args["slot"] = "11:00"
	assert.Contains(t, f.fails(t, "schedule_toggle_slot", args), "not part of window")
}

func TestSetName_Empty(t *testing.T) {
	f := newFixture(t, false, server.Options{})
	assert.Contains(t, f.fails(t, "schedule_set_name", map[string]interface{}{"eventId": "ev", "name": "  "}), "must not be empty")
}

func TestReplaceWindows_DropsResponses(t *testing.T) {
	f := newFixture(t, false, server.Options{})
	event, window := f.createEvent(t)

	f.ok(t, "schedule_respond", map[string]interface{}{
		"eventId":     event.ID,
		"windowId":    window.ID,
		"participant": "Alice",
	}, nil)

	f.ok(t, "schedule_replace_windows", map[string]interface{}{
		"eventId": event.ID,
		"windows": "2025-03-03 13:00-14:00",
	}, nil)

	var view eventView
	f.ok(t, "schedule_get_event", map[string]interface{}{"eventId": event.ID}, &view)
	require.Len(t, view.Windows, 1)
	assert.Equal(t, "2025-03-03", view.Windows[0].Date)
	assert.Empty(t, view.Participants)

	assert.Contains(t, f.fails(t, "schedule_replace_windows", map[string]interface{}{"eventId": event.ID}), "windows is required")
	assert.Contains(t, f.fails(t, "schedule_replace_windows", map[string]interface{}{
		"eventId": "missing",
		"windows": "2025-03-03 13:00-14:00",
	}), "not found")
}

func TestHeatmap(t *testing.T) {
	f := newFixture(t, false, server.Options{})
	event, window := f.createEvent(t)

	f.ok(t, "schedule_respond", map[string]interface{}{
		"eventId":     event.ID,
		"windowId":    window.ID,
		"participant": "Alice",
		"ngSlots":     "09:30",
	}, nil)

	var hm struct {
		Participants []string `json:"participants"`
		Rows         []struct {
			Slot string `json:"slot"`
		} `json:"rows"`
	}
	f.ok(t, "schedule_heatmap", map[string]interface{}{"eventId": event.ID}, &hm)
	assert.Equal(t, []string{"Alice"}, hm.Participants)
	assert.Len(t, hm.Rows, 4)

	res := f.call(t, "schedule_heatmap", map[string]interface{}{"eventId": event.ID, "format": "text"})
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), "1/1 *")
	assert.Contains(t, text(t, res), "0/1")

	assert.Contains(t, f.fails(t, "schedule_heatmap", map[string]interface{}{"eventId": event.ID, "format": "svg"}), "format must be")
	assert.Contains(t, f.fails(t, "schedule_heatmap", map[string]interface{}{"eventId": "missing"}), "not found")
}

func TestGridTools(t *testing.T) {
	f := newFixture(t, true, server.Options{})

	var slots struct {
		Slots []string `json:"slots"`
	}
	f.ok(t, "schedule_generate_slots", map[string]interface{}{"startTime": "09:00", "endTime": "10:30"}, &slots)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, slots.Slots)

	f.ok(t, "schedule_generate_slots", map[string]interface{}{"startTime": "10:00", "endTime": "09:00"}, &slots)
	assert.Empty(t, slots.Slots)

	var end struct {
		EndTime string `json:"endTime"`
	}
	f.ok(t, "schedule_slot_end_time", map[string]interface{}{"slot": "23:30"}, &end)
	assert.Equal(t, "00:30", end.EndTime)

	f.ok(t, "schedule_slot_end_time", map[string]interface{}{"slot": "09:00", "durationMinutes": float64(90)}, &end)
	assert.Equal(t, "10:30", end.EndTime)

	assert.Contains(t, f.fails(t, "schedule_slot_end_time", map[string]interface{}{"slot": "9am"}), "must be HH:MM")
}

func TestSlotEndTime_EventDuration(t *testing.T) {
	f := newFixture(t, false, server.Options{})

	var res eventResult
	f.ok(t, "schedule_create_event", map[string]interface{}{"title": "Standup", "durationMinutes": float64(30)}, &res)

	var end struct {
		EndTime string `json:"endTime"`
	}
	f.ok(t, "schedule_slot_end_time", map[string]interface{}{"slot": "09:00", "eventId": res.Event.ID}, &end)
	assert.Equal(t, "09:30", end.EndTime)
}

func TestRecentEvents(t *testing.T) {
	f := newFixture(t, false, server.Options{})
	event, _ := f.createEvent(t)
	f.sc.SetClock(func() time.Time { return created.Add(48 * time.Hour) })

	var res recentEventsResult
	f.ok(t, "schedule_recent_events", nil, &res)
	assert.Equal(t, 7, res.RetentionDays)
	require.Len(t, res.Events, 1)
	assert.Equal(t, event.ID, res.Events[0].ID)
	assert.Equal(t, 5, res.Events[0].RemainingDays)
	require.Len(t, res.Created, 1)
	assert.Equal(t, event.ID, res.Created[0].EventID)

	f.sc.SetClock(func() time.Time { return created.Add(8 * 24 * time.Hour) })
	f.ok(t, "schedule_recent_events", nil, &res)
	assert.Empty(t, res.Events)
	assert.Empty(t, res.Created)
}

type fakeBusy struct {
	intervals []busy.Interval
}

func (f fakeBusy) BusyTimes(_ context.Context, date string) ([]busy.Interval, error) {
	if date != "2025-03-01" {
		return []busy.Interval{}, nil
	}
	return f.intervals, nil
}

func TestBusyTimes(t *testing.T) {
	src := fakeBusy{intervals: []busy.Interval{{
		Start: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}}}
	f := newFixture(t, false, server.Options{Busy: src, BusyName: "fake"})
	event, window := f.createEvent(t)

	var res busyTimesResult
	f.ok(t, "schedule_busy_times", map[string]interface{}{"date": "2025-03-01"}, &res)
	assert.Equal(t, "fake", res.Source)
	assert.Equal(t, []string{"09:30〜10:00"}, res.Busy)
	assert.Empty(t, res.SuggestedNGSlots)

	f.ok(t, "schedule_busy_times", map[string]interface{}{"eventId": event.ID, "windowId": window.ID}, &res)
	assert.Equal(t, "2025-03-01", res.Date)
	assert.Equal(t, window.ID, res.WindowID)
	assert.Equal(t, []string{"09:00", "09:30"}, res.SuggestedNGSlots)

	assert.Contains(t, f.fails(t, "schedule_busy_times", map[string]interface{}{}), "date is required")
	assert.Contains(t, f.fails(t, "schedule_busy_times", map[string]interface{}{"windowId": window.ID}), "eventId is required")
}

func TestBusyTimes_NoCalendar(t *testing.T) {
	f := newFixture(t, true, server.Options{})

	var res busyTimesResult
	f.ok(t, "schedule_busy_times", map[string]interface{}{"date": "2025-03-01"}, &res)
	assert.Equal(t, "none", res.Source)
	assert.Empty(t, res.Busy)
}
