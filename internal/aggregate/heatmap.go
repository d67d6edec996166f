package aggregate

import (
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/slotgrid"
)

// HeatCell is one cell of the heatmap. Cells for slots outside the column's
// window are not applicable and carry no availability.
type HeatCell struct {
	Applicable bool  `json:"applicable"`
	Cell       Cell  `json:"cell"`
	Level      Level `json:"level"`
}

// HeatRow is one slot of the union grid across all columns.
type HeatRow struct {
	Slot      string     `json:"slot"`
	Label     string     `json:"label"`
	OnTheHour bool       `json:"onTheHour"`
	Cells     []HeatCell `json:"cells"`
}

// Heatmap has one column per window and one row per slot of the union grid.
type Heatmap struct {
	Windows      []schedule.Window `json:"windows"`
	Participants []string          `json:"participants"`
	Rows         []HeatRow         `json:"rows"`
}

// BuildHeatmap lays out windows, sorted by date and start time, against the
// union slot grid.
func BuildHeatmap(windows []schedule.Window, objectionsByWindow map[string][]schedule.Objection) Heatmap {
	cols := make([]schedule.Window, len(windows))
	copy(cols, windows)
	schedule.SortWindows(cols)

	participants := Participants(objectionsByWindow)
	grid := slotgrid.UnionSlotGrid(cols)

	hm := Heatmap{
		Windows:      cols,
		Participants: participants,
		Rows:         make([]HeatRow, 0, len(grid)),
	}
	for _, slot := range grid {
		row := HeatRow{
			Slot:      slot,
			Label:     slotgrid.Label(slot),
			OnTheHour: slotgrid.IsOnTheHour(slot),
			Cells:     make([]HeatCell, 0, len(cols)),
		}
		for _, w := range cols {
			if !slotgrid.Covers(w, slot) {
				row.Cells = append(row.Cells, HeatCell{Level: LevelNoData})
				continue
			}
			cell := CellAvailability(w, slot, objectionsByWindow[w.ID], participants)
			row.Cells = append(row.Cells, HeatCell{
				Applicable: true,
				Cell:       cell,
				Level:      cell.Level(),
			})
		}
		hm.Rows = append(hm.Rows, row)
	}
	return hm
}

// Summary is a participant's own tally for one window.
type Summary struct {
	Responded bool `json:"responded"`
	OKCount   int  `json:"okCount"`
	Total     int  `json:"total"`
}

// ParticipantSummary counts the slots of window the participant can attend.
// NG slots the window does not cover are ignored.
func ParticipantSummary(window schedule.Window, objections []schedule.Objection, participant string) Summary {
	slots := slotgrid.GenerateSlots(window.StartTime, window.EndTime)
	resp := ResponseOf(objections, window.ID, participant)
	s := Summary{Responded: resp.HasResponded(), Total: len(slots)}
	if !s.Responded {
		return s
	}
	for _, slot := range slots {
		if !resp.IsNG(slot) {
			s.OKCount++
		}
	}
	return s
}
