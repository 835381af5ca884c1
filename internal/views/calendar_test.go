package views

import (
	"testing"
	"time"

	"casa/internal/core"
)

func TestEventsForDay(t *testing.T) {
	events := []core.CalendarEvent{
		{ID: "a", Date: time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC), Time: "15:00"},
		{ID: "b", Date: time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC), Time: "09:00"},
		{ID: "c", Date: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), Time: "08:00"},
		{ID: "d", Date: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), Time: "10:00"},
		{ID: "e", Date: time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC), Time: "08:00"},
	}

	got := EventsForDay(events, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	want := []string{"c", "d", "a"}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("event %d = %s, want %s", i, got[i].ID, id)
		}
	}

	if none := EventsForDay(events, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)); len(none) != 0 {
		t.Fatalf("expected no events, got %d", len(none))
	}
}

func TestEventsForDayUsesDayLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	// 23:30 UTC on June 1 is already June 2 at UTC+2.
	events := []core.CalendarEvent{{ID: "late", Date: time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC), Time: "01:30"}}
	if got := EventsForDay(events, time.Date(2024, 6, 2, 0, 0, 0, 0, loc)); len(got) != 1 {
		t.Fatalf("expected event on local June 2")
	}
}

func TestCombineDateTime(t *testing.T) {
	d := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if got := CombineDateTime(d, "14:05"); !got.Equal(time.Date(2024, 6, 1, 14, 5, 0, 0, time.UTC)) {
		t.Fatalf("got %v", got)
	}
	if got := CombineDateTime(d, "later"); !got.Equal(d) {
		t.Fatalf("malformed time should keep midnight, got %v", got)
	}
}
