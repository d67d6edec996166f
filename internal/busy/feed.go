package busy

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/slotmatch/slotmatch/internal/logging"
)

const (
	maxEventLength        = 24 * time.Hour
	maxOccurrencesPerRule = 5000
)

// feedEvent is the part of a VEVENT that matters for busy lookup.
type feedEvent struct {
	uid     string
	start   time.Time
	end     time.Time
	allDay  bool
	rrule   string
	exdates []time.Time
}

// parseFeed extracts timed, opaque, non-cancelled events. Instances moved by
// a RECURRENCE-ID override are excluded from their base rule; the override
// itself is kept as a standalone event.
func parseFeed(body []byte, loc *time.Location) ([]feedEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty feed")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var events []feedEvent
	overridden := make(map[string][]time.Time)

	for _, ve := range cal.Events() {
		uid := ""
		if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
			uid = p.Value
		}

		if rid := ve.GetProperty("RECURRENCE-ID"); rid != nil && uid != "" {
			if t, err := parsePropTime(rid, loc); err == nil {
				overridden[uid] = append(overridden[uid], t)
			}
		}

		if strings.EqualFold(propValue(ve, "STATUS"), "CANCELLED") ||
			strings.EqualFold(propValue(ve, "TRANSP"), "TRANSPARENT") {
			continue
		}

		ev, ok := parseEvent(ve, uid, loc)
		if !ok || ev.allDay {
			continue
		}
		events = append(events, ev)
	}

	for i := range events {
		if events[i].rrule != "" {
			events[i].exdates = append(events[i].exdates, overridden[events[i].uid]...)
		}
	}
	return events, nil
}

func parseEvent(ve *ical.VEvent, uid string, loc *time.Location) (feedEvent, bool) {
	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return feedEvent{}, false
	}
	ev := feedEvent{uid: uid}

	if vs, ok := dtstart.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		ev.allDay = true
	}
	if !strings.Contains(dtstart.Value, "T") {
		ev.allDay = true
	}
	if ev.allDay {
		return ev, true
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return feedEvent{}, false
	}
	ev.start = anchorFloating(start, dtstart, loc)

	if dtend := ve.GetProperty(ical.ComponentPropertyDtEnd); dtend != nil {
		end, err := ve.GetEndAt()
		if err != nil {
			return feedEvent{}, false
		}
		ev.end = anchorFloating(end, dtend, loc)
	} else if d, ok := parseDuration(propValue(ve, "DURATION")); ok {
		ev.end = ev.start.Add(d)
	} else {
		ev.end = ev.start
	}

	if !ev.end.After(ev.start) {
		return feedEvent{}, false
	}
	if ev.end.Sub(ev.start) >= maxEventLength {
		ev.allDay = true
		return ev, true
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.rrule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		tzid := ""
		if tz, ok := p.ICalParameters["TZID"]; ok && len(tz) > 0 {
			tzid = tz[0]
		}
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICalTime(strings.TrimSpace(part), tzid, loc); err == nil {
				ev.exdates = append(ev.exdates, t)
			}
		}
	}
	return ev, true
}

// expandBusy returns the occurrences overlapping [dayStart, dayEnd).
func expandBusy(events []feedEvent, dayStart, dayEnd time.Time, logger *slog.Logger) []Interval {
	out := []Interval{}
	for _, ev := range events {
		length := ev.end.Sub(ev.start)
		if ev.rrule == "" {
			b := Interval{Start: ev.start, End: ev.end}
			if b.Overlaps(dayStart, dayEnd) {
				out = append(out, Interval{Start: b.Start.In(dayStart.Location()), End: b.End.In(dayStart.Location())})
			}
			continue
		}

		opt, err := rrule.StrToROption(ev.rrule)
		if err != nil {
			logger.Debug("skipping unparseable RRULE", slog.String("rrule", ev.rrule), logging.Err(err))
			continue
		}
		opt.Dtstart = ev.start
		r, err := rrule.NewRRule(*opt)
		if err != nil {
			logger.Debug("skipping invalid RRULE", slog.String("rrule", ev.rrule), logging.Err(err))
			continue
		}

		var set rrule.Set
		set.RRule(r)
		for _, ex := range ev.exdates {
			set.ExDate(ex.In(ev.start.Location()))
		}

		// An occurrence that starts before the day can still run into it.
		from := dayStart.Add(-length).In(ev.start.Location())
		to := dayEnd.In(ev.start.Location())
		starts := set.Between(from, to, true)
		if len(starts) > maxOccurrencesPerRule {
			starts = starts[:maxOccurrencesPerRule]
		}
		for _, st := range starts {
			b := Interval{Start: st, End: st.Add(length)}
			if b.Overlaps(dayStart, dayEnd) {
				out = append(out, Interval{Start: b.Start.In(dayStart.Location()), End: b.End.In(dayStart.Location())})
			}
		}
	}
	SortIntervals(out)
	return out
}

func propValue(ve *ical.VEvent, name string) string {
	if p := ve.GetProperty(ical.ComponentProperty(name)); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

// anchorFloating moves a floating time (no zone, no Z suffix) into loc. The
// parser reads those in time.Local, which is not the configured zone.
func anchorFloating(t time.Time, prop *ical.IANAProperty, loc *time.Location) time.Time {
	if strings.HasSuffix(prop.Value, "Z") {
		return t
	}
	if tz, ok := prop.ICalParameters["TZID"]; ok && len(tz) > 0 {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func parsePropTime(p *ical.IANAProperty, loc *time.Location) (time.Time, error) {
	tzid := ""
	if tz, ok := p.ICalParameters["TZID"]; ok && len(tz) > 0 {
		tzid = tz[0]
	}
	return parseICalTime(strings.TrimSpace(p.Value), tzid, loc)
}

// parseICalTime parses DATE, floating DATE-TIME and UTC DATE-TIME values.
func parseICalTime(v, tzid string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if tzid != "" {
		if l, err := time.LoadLocation(tzid); err == nil {
			loc = l
		}
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}

var durationPattern = regexp.MustCompile(`^(-)?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseDuration reads an RFC 5545 DURATION such as "PT1H30M" or "P1D".
func parseDuration(v string) (time.Duration, bool) {
	m := durationPattern.FindStringSubmatch(v)
	if m == nil || v == "P" || v == "PT" {
		return 0, false
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return 0, false
		}
		d += time.Duration(n) * unit
	}
	if m[1] == "-" {
		d = -d
	}
	return d, true
}
