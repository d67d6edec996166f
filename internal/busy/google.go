package busy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// DefaultCalendarID is the calendar queried when none is configured.
const DefaultCalendarID = "primary"

// GoogleSource reads busy times from the Google Calendar FreeBusy API.
type GoogleSource struct {
	svc        *calendar.Service
	calendarID string
	loc        *time.Location
}

// NewGoogleSource creates a source authenticated by ts.
func NewGoogleSource(ctx context.Context, ts oauth2.TokenSource, calendarID string, loc *time.Location) (*GoogleSource, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return NewGoogleSourceWithService(svc, calendarID, loc), nil
}

// NewGoogleSourceWithService wraps an existing service.
func NewGoogleSourceWithService(svc *calendar.Service, calendarID string, loc *time.Location) *GoogleSource {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	return &GoogleSource{svc: svc, calendarID: calendarID, loc: locOrUTC(loc)}
}

// BusyTimes queries the whole local day.
func (s *GoogleSource) BusyTimes(ctx context.Context, date string) ([]Interval, error) {
	dayStart, dayEnd, err := DayBounds(date, s.loc)
	if err != nil {
		return nil, err
	}

	req := &calendar.FreeBusyRequest{
		TimeMin:  dayStart.Format(time.RFC3339),
		TimeMax:  dayEnd.Format(time.RFC3339),
		TimeZone: s.loc.String(),
		Items:    []*calendar.FreeBusyRequestItem{{Id: s.calendarID}},
	}
	resp, err := s.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	cal, ok := resp.Calendars[s.calendarID]
	if !ok {
		return []Interval{}, nil
	}
	if len(cal.Errors) > 0 {
		reasons := make([]string, 0, len(cal.Errors))
		for _, e := range cal.Errors {
			reasons = append(reasons, e.Reason)
		}
		return nil, fmt.Errorf("freebusy error for calendar %s: %s", s.calendarID, strings.Join(reasons, ", "))
	}

	out := make([]Interval, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		start, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			continue
		}
		out = append(out, Interval{Start: start.In(s.loc), End: end.In(s.loc)})
	}
	SortIntervals(out)
	return out, nil
}
