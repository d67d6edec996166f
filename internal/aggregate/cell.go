package aggregate

import (
	"sort"

	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/slotgrid"
)

// Cell is the availability of one slot within one window.
type Cell struct {
	NGCount        int      `json:"ngCount"`
	NGParticipants []string `json:"ngParticipants"`
	OKParticipants []string `json:"okParticipants"`
}

// OKCount is the number of respondents who can attend.
func (c Cell) OKCount() int {
	return len(c.OKParticipants)
}

// Respondents is the number of participants who answered the window.
func (c Cell) Respondents() int {
	return c.NGCount + len(c.OKParticipants)
}

// CellAvailability classifies every participant who responded to window as
// NG or OK for slot. Participants are reported in the order of participants,
// followed by respondents missing from that list in name order. A slot the
// window does not cover yields an empty cell.
func CellAvailability(window schedule.Window, slot string, objections []schedule.Objection, participants []string) Cell {
	cell := Cell{
		NGParticipants: []string{},
		OKParticipants: []string{},
	}
	if !slotgrid.Covers(window, slot) {
		return cell
	}

	responses := latestResponses(window.ID, objections)
	for _, name := range respondentOrder(responses, participants) {
		if responses[name].IsNG(slot) {
			cell.NGCount++
			cell.NGParticipants = append(cell.NGParticipants, name)
		} else {
			cell.OKParticipants = append(cell.OKParticipants, name)
		}
	}
	return cell
}

// latestResponses keeps the last objection per participant for windowID.
func latestResponses(windowID string, objections []schedule.Objection) map[string]Response {
	out := make(map[string]Response)
	for _, o := range objections {
		if o.WindowID != windowID {
			continue
		}
		out[o.Participant] = Responded(o.NGSlots)
	}
	return out
}

func respondentOrder(responses map[string]Response, participants []string) []string {
	order := make([]string, 0, len(responses))
	listed := make(map[string]struct{}, len(participants))
	for _, name := range participants {
		if _, dup := listed[name]; dup {
			continue
		}
		listed[name] = struct{}{}
		if _, ok := responses[name]; ok {
			order = append(order, name)
		}
	}

	var extra []string
	for name := range responses {
		if _, ok := listed[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// Participants returns the distinct participant names across all
// objections, sorted.
func Participants(objectionsByWindow map[string][]schedule.Objection) []string {
	seen := make(map[string]struct{})
	for _, objs := range objectionsByWindow {
		for _, o := range objs {
			seen[o.Participant] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
