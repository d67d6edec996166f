package aggregate

import (
	"sort"

	"github.com/slotmatch/slotmatch/internal/schedule"
)

// Response is a participant's answer for one window: either not responded,
// or responded with a (possibly empty) set of NG slots.
type Response struct {
	responded bool
	ng        map[string]struct{}
}

// NotResponded is the state before a participant touches a window.
func NotResponded() Response {
	return Response{}
}

// Responded builds a response with the given NG slots.
func Responded(ngSlots []string) Response {
	ng := make(map[string]struct{}, len(ngSlots))
	for _, s := range ngSlots {
		ng[s] = struct{}{}
	}
	return Response{responded: true, ng: ng}
}

// ResponseOf finds the participant's response for windowID. When several
// objections match, the last one wins.
func ResponseOf(objections []schedule.Objection, windowID, participant string) Response {
	r := NotResponded()
	for _, o := range objections {
		if o.WindowID == windowID && o.Participant == participant {
			r = Responded(o.NGSlots)
		}
	}
	return r
}

// HasResponded reports whether the participant answered the window.
func (r Response) HasResponded() bool {
	return r.responded
}

// IsNG reports whether slot is marked as unavailable. It is always false
// for a participant who has not responded.
func (r Response) IsNG(slot string) bool {
	if !r.responded {
		return false
	}
	_, ok := r.ng[slot]
	return ok
}

// NGSlots returns the NG slots in ascending order.
func (r Response) NGSlots() []string {
	out := make([]string, 0, len(r.ng))
	for s := range r.ng {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Toggle flips slot in ngSlots and returns the new normalized set. It is
// the payload a participant upserts when clicking a slot; a participant who
// has not responded yet starts from an empty set.
func Toggle(ngSlots []string, slot string) []string {
	next := make([]string, 0, len(ngSlots)+1)
	found := false
	for _, s := range ngSlots {
		if s == slot {
			found = true
			continue
		}
		next = append(next, s)
	}
	if !found {
		next = append(next, slot)
	}
	return schedule.NormalizeSlots(next)
}
