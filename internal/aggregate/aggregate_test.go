package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/slotgrid"
)

func objection(windowID, participant string, ng ...string) schedule.Objection {
	return schedule.Objection{
		ID:          windowID + "/" + participant,
		WindowID:    windowID,
		Participant: participant,
		NGSlots:     ng,
	}
}

func TestCellAvailability_AliceAndBob(t *testing.T) {
	w := schedule.Window{ID: "w1", Date: "2025-03-01", StartTime: "09:00", EndTime: "11:00"}
	objs := []schedule.Objection{objection("w1", "Alice", "09:30")}
	participants := []string{"Alice", "Bob"}

	cell := CellAvailability(w, "09:00", objs, participants)
	assert.Equal(t, Cell{NGCount: 0, NGParticipants: []string{}, OKParticipants: []string{"Alice"}}, cell)

	cell = CellAvailability(w, "09:30", objs, participants)
	assert.Equal(t, Cell{NGCount: 1, NGParticipants: []string{"Alice"}, OKParticipants: []string{}}, cell)
}

func TestCellAvailability_EdgeCases(t *testing.T) {
	w := schedule.Window{ID: "w1", StartTime: "09:00", EndTime: "11:00"}

	t.Run("empty objection means ok everywhere", func(t *testing.T) {
		cell := CellAvailability(w, "10:00", []schedule.Objection{objection("w1", "Carol")}, []string{"Carol"})
		assert.Equal(t, []string{"Carol"}, cell.OKParticipants)
		assert.Equal(t, 1, cell.Respondents())
	})

	t.Run("other windows ignored", func(t *testing.T) {
		cell := CellAvailability(w, "10:00", []schedule.Objection{objection("w2", "Carol", "10:00")}, []string{"Carol"})
		assert.Equal(t, 0, cell.Respondents())
	})

	t.Run("unlisted respondent still counted", func(t *testing.T) {
		objs := []schedule.Objection{objection("w1", "Zed", "10:00"), objection("w1", "Alice")}
		cell := CellAvailability(w, "10:00", objs, []string{"Alice"})
		assert.Equal(t, []string{"Zed"}, cell.NGParticipants)
		assert.Equal(t, []string{"Alice"}, cell.OKParticipants)
	})

	t.Run("last duplicate wins", func(t *testing.T) {
		objs := []schedule.Objection{objection("w1", "Alice", "10:00"), objection("w1", "Alice")}
		cell := CellAvailability(w, "10:00", objs, []string{"Alice"})
		assert.Equal(t, 0, cell.NGCount)
		assert.Equal(t, 1, cell.Respondents())
	})

	t.Run("uncovered slot is empty", func(t *testing.T) {
		cell := CellAvailability(w, "12:00", []schedule.Objection{objection("w1", "Alice", "12:00")}, []string{"Alice"})
		assert.Equal(t, 0, cell.Respondents())
	})

	t.Run("participant list order", func(t *testing.T) {
		objs := []schedule.Objection{objection("w1", "Bob"), objection("w1", "Alice"), objection("w1", "Carol")}
		cell := CellAvailability(w, "10:00", objs, []string{"Carol", "Alice", "Bob", "Carol"})
		assert.Equal(t, []string{"Carol", "Alice", "Bob"}, cell.OKParticipants)
	})
}

func TestCellAvailability_RespondentsNeverDoubleCounted(t *testing.T) {
	w := schedule.Window{ID: "w1", StartTime: "09:00", EndTime: "12:00"}
	objs := []schedule.Objection{
		objection("w1", "A", "09:00", "09:30"),
		objection("w1", "B", "11:30"),
		objection("w1", "C"),
		objection("w2", "D", "09:00"),
	}
	participants := []string{"A", "B", "C", "D", "E"}
	for _, slot := range slotgrid.GenerateSlots(w.StartTime, w.EndTime) {
		cell := CellAvailability(w, slot, objs, participants)
		assert.Equal(t, 3, cell.Respondents(), slot)
		assert.Equal(t, len(cell.NGParticipants), cell.NGCount, slot)
	}
}

func TestHeatLevel(t *testing.T) {
	tests := []struct {
		ng, respondents int
		expected        Level
	}{
		{0, 0, LevelNoData},
		{3, 0, LevelNoData},
		{0, 5, LevelAllOK},
		{1, 5, LevelMostlyOK},
		{2, 5, LevelManyOK},
		{3, 5, LevelHalf},
		{4, 5, LevelFewOK},
		{9, 10, LevelNearlyNG},
		{5, 5, LevelAllNG},
		{-1, 2, LevelAllOK},
		{7, 2, LevelAllNG},
		{0, -4, LevelNoData},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HeatLevel(tt.ng, tt.respondents), "ng=%d respondents=%d", tt.ng, tt.respondents)
	}
	assert.Equal(t, "all-ok", LevelAllOK.String())
	assert.Equal(t, "unknown", Level(42).String())
}

func TestFindBestSlots_TwoWindows(t *testing.T) {
	windows := []schedule.Window{
		{ID: "w1", Date: "2025-03-01", StartTime: "10:00", EndTime: "11:00"},
		{ID: "w2", Date: "2025-03-02", StartTime: "14:00", EndTime: "15:00"},
	}
	byWindow := map[string][]schedule.Objection{
		"w1": {objection("w1", "Alice"), objection("w1", "Bob", "10:00")},
		"w2": {objection("w2", "Alice"), objection("w2", "Bob", "14:30")},
	}
	participants := Participants(byWindow)

	best := FindBestSlots(windows, byWindow, participants)
	assert.Equal(t, []RankedSlot{
		{WindowID: "w1", Date: "2025-03-01", Slot: "10:30", OKCount: 2},
		{WindowID: "w2", Date: "2025-03-02", Slot: "14:00", OKCount: 2},
	}, best)
}

func TestFindBestSlots_Ordering(t *testing.T) {
	windows := []schedule.Window{
		{ID: "b", StartTime: "10:00", EndTime: "11:00"},
		{ID: "a", StartTime: "10:00", EndTime: "11:00"},
	}
	byWindow := map[string][]schedule.Objection{
		"a": {objection("a", "Alice")},
		"b": {objection("b", "Alice"), objection("b", "Bob")},
	}
	best := FindBestSlots(windows, byWindow, []string{"Alice", "Bob"})
	require.Len(t, best, 4)
	assert.Equal(t, "b", best[0].WindowID)
	assert.Equal(t, "10:00", best[0].Slot)
	assert.Equal(t, "10:30", best[1].Slot)
	assert.Equal(t, "a", best[2].WindowID)
	assert.Equal(t, 1, best[3].OKCount)
}

func TestFindBestSlots_NoVacuousSlots(t *testing.T) {
	windows := []schedule.Window{
		{ID: "w1", StartTime: "09:00", EndTime: "12:00"},
		{ID: "broken", StartTime: "12:00", EndTime: "09:00"},
	}
	byWindow := map[string][]schedule.Objection{
		"broken": {objection("broken", "Alice")},
	}
	best := FindBestSlots(windows, byWindow, []string{"Alice"})
	assert.Empty(t, best)
	assert.NotNil(t, best)

	byWindow["w1"] = []schedule.Objection{objection("w1", "Alice", "09:00", "99:99")}
	for _, r := range FindBestSlots(windows, byWindow, []string{"Alice"}) {
		assert.Greater(t, r.OKCount+r.NGCount, 0)
		assert.NotEqual(t, "09:00", r.Slot)
	}
}

func TestTop(t *testing.T) {
	ranked := make([]RankedSlot, 15)
	assert.Len(t, Top(ranked, 0), DefaultTop)
	assert.Len(t, Top(ranked, 3), 3)
	assert.Len(t, Top(ranked[:2], 5), 2)
}

func TestParticipants(t *testing.T) {
	names := Participants(map[string][]schedule.Objection{
		"w1": {objection("w1", "Bob"), objection("w1", "Alice")},
		"w2": {objection("w2", "Bob"), objection("w2", "Carol")},
	})
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names)
	assert.Empty(t, Participants(nil))
}

func TestBuildHeatmap_SparseGrid(t *testing.T) {
	windows := []schedule.Window{
		{ID: "late", Date: "2025-03-02", StartTime: "14:00", EndTime: "15:00"},
		{ID: "early", Date: "2025-03-01", StartTime: "09:00", EndTime: "10:00"},
	}
	byWindow := map[string][]schedule.Objection{
		"early": {objection("early", "Alice", "09:30")},
	}

	hm := BuildHeatmap(windows, byWindow)
	require.Len(t, hm.Windows, 2)
	assert.Equal(t, "early", hm.Windows[0].ID)
	assert.Equal(t, []string{"Alice"}, hm.Participants)
	require.Len(t, hm.Rows, 12)

	first := hm.Rows[0]
	assert.Equal(t, "09:00", first.Slot)
	assert.True(t, first.OnTheHour)
	assert.True(t, first.Cells[0].Applicable)
	assert.Equal(t, LevelAllOK, first.Cells[0].Level)
	assert.False(t, first.Cells[1].Applicable)

	second := hm.Rows[1]
	assert.Equal(t, ":30", second.Label)
	assert.Equal(t, LevelAllNG, second.Cells[0].Level)

	gap := hm.Rows[4] // 11:00 is covered by neither window
	assert.False(t, gap.Cells[0].Applicable)
	assert.False(t, gap.Cells[1].Applicable)

	late := hm.Rows[10]
	assert.Equal(t, "14:00", late.Slot)
	assert.True(t, late.Cells[1].Applicable)
	assert.Equal(t, LevelNoData, late.Cells[1].Level)

	// input slice is left untouched
	assert.Equal(t, "late", windows[0].ID)
}

func TestParticipantSummary(t *testing.T) {
	w := schedule.Window{ID: "w1", StartTime: "09:00", EndTime: "11:00"}
	objs := []schedule.Objection{objection("w1", "Alice", "09:00", "15:00")}

	assert.Equal(t, Summary{Responded: true, OKCount: 3, Total: 4}, ParticipantSummary(w, objs, "Alice"))
	assert.Equal(t, Summary{Responded: false, Total: 4}, ParticipantSummary(w, objs, "Bob"))
}

func TestResponse(t *testing.T) {
	r := NotResponded()
	assert.False(t, r.HasResponded())
	assert.False(t, r.IsNG("10:00"))

	r = Responded(nil)
	assert.True(t, r.HasResponded())
	assert.Empty(t, r.NGSlots())

	r = ResponseOf([]schedule.Objection{objection("w1", "Alice", "10:30", "10:00")}, "w1", "Alice")
	assert.Equal(t, []string{"10:00", "10:30"}, r.NGSlots())
	assert.False(t, ResponseOf(nil, "w1", "Alice").HasResponded())
}

func TestToggle(t *testing.T) {
	slots := Toggle(nil, "10:00")
	assert.Equal(t, []string{"10:00"}, slots)
	slots = Toggle(slots, "09:30")
	assert.Equal(t, []string{"09:30", "10:00"}, slots)
	slots = Toggle(slots, "10:00")
	assert.Equal(t, []string{"09:30"}, slots)
	assert.Equal(t, []string{}, Toggle(slots, "09:30"))
}
