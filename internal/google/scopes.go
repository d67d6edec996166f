package google

import calendar "google.golang.org/api/calendar/v3"

// DefaultOAuthScopes are the scopes requested by the auth flow. Busy-time
// lookup only needs to read free/busy information.
var DefaultOAuthScopes = []string{
	calendar.CalendarReadonlyScope,
}
