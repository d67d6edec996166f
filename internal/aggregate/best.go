package aggregate

import (
	"sort"

	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/slotgrid"
)

// DefaultTop is the number of best slots usually shown.
const DefaultTop = 10

// RankedSlot is a slot nobody objected to.
type RankedSlot struct {
	WindowID string `json:"windowId"`
	Date     string `json:"date"`
	Slot     string `json:"slot"`
	OKCount  int    `json:"okCount"`
	NGCount  int    `json:"ngCount"`
}

// FindBestSlots ranks every slot of every window that has at least one
// respondent and no objections. A participant who did not answer a window
// counts neither way. Results are ordered by OK count descending, then by
// window id and slot ascending.
func FindBestSlots(windows []schedule.Window, objectionsByWindow map[string][]schedule.Objection, participants []string) []RankedSlot {
	ranked := []RankedSlot{}
	for _, w := range windows {
		objs := objectionsByWindow[w.ID]
		for _, slot := range slotgrid.GenerateSlots(w.StartTime, w.EndTime) {
			cell := CellAvailability(w, slot, objs, participants)
			if cell.NGCount != 0 || cell.OKCount() == 0 {
				continue
			}
			ranked = append(ranked, RankedSlot{
				WindowID: w.ID,
				Date:     w.Date,
				Slot:     slot,
				OKCount:  cell.OKCount(),
				NGCount:  cell.NGCount,
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.OKCount != b.OKCount {
			return a.OKCount > b.OKCount
		}
		if a.WindowID != b.WindowID {
			return a.WindowID < b.WindowID
		}
		return a.Slot < b.Slot
	})
	return ranked
}

// Top returns at most n leading entries of ranked. A non-positive n means
// DefaultTop.
func Top(ranked []RankedSlot, n int) []RankedSlot {
	if n <= 0 {
		n = DefaultTop
	}
	if len(ranked) <= n {
		return ranked
	}
	return ranked[:n]
}
