package views

import (
	"slices"
	"strings"
	"time"

	"casa/internal/core"
)

// EventsForDay returns the events on day's calendar date, compared in day's
// location, ordered by their "HH:MM" time.
func EventsForDay(events []core.CalendarEvent, day time.Time) []core.CalendarEvent {
	y, m, d := day.Date()
	out := make([]core.CalendarEvent, 0)
	for _, e := range events {
		ey, em, ed := e.Date.In(day.Location()).Date()
		if ey == y && em == m && ed == d {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b core.CalendarEvent) int {
		return strings.Compare(a.Time, b.Time)
	})
	return out
}

// CombineDateTime places an "HH:MM" time on date's calendar day. A
// malformed time keeps the day at midnight.
func CombineDateTime(date time.Time, hhmm string) time.Time {
	y, m, d := date.Date()
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, date.Location())
}
