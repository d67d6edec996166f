// Package busy looks up when the current user is already busy on a given
// day, so a participant can pre-mark clashing slots as NG.
//
// Three sources implement Source: ICalSource reads a published iCal feed,
// GoogleSource asks the Google Calendar FreeBusy API and None reports
// nothing. All of them work in one fixed local time zone.
//
// The helpers in this package compare busy intervals against dates and
// "HH:MM" clock strings in that zone:
//
//	busyTimes, _ := src.BusyTimes(ctx, "2026-01-15")
//	ng := busy.SuggestNG(window, 60, busyTimes, loc)
package busy
