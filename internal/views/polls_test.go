package views

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"casa/internal/core"
)

func TestPollTally(t *testing.T) {
	cases := []struct {
		name    string
		votes   map[string]core.Vote
		yes, no int
		yesPct  float64
		noPct   float64
	}{
		{"no votes", nil, 0, 0, 0, 0},
		{"unanimous", map[string]core.Vote{"u1": core.VoteYes, "u2": core.VoteYes}, 2, 0, 100, 0},
		{"split", map[string]core.Vote{"u1": core.VoteYes, "u2": core.VoteNo, "u3": core.VoteNo}, 1, 2, 100.0 / 3, 200.0 / 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PollTally(core.Poll{Votes: tc.votes})
			if got.Yes != tc.yes || got.No != tc.no || got.Total != tc.yes+tc.no {
				t.Fatalf("counts = %+v", got)
			}
			if math.Abs(got.YesPercent-tc.yesPct) > 1e-9 || math.Abs(got.NoPercent-tc.noPct) > 1e-9 {
				t.Fatalf("percentages = %v/%v", got.YesPercent, got.NoPercent)
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	snap := core.Snapshot{
		Users:    []core.User{{ID: "u1", Name: "Alex"}},
		Expenses: sampleExpenses(),
		Chores:   []core.Chore{{ID: "c1"}, {ID: "c2", Completed: true}},
		Shopping: []core.ShoppingItem{{ID: "i1"}, {ID: "i2"}, {ID: "i3", Completed: true}},
		Announcements: []core.Announcement{
			{ID: "n2", Title: "Newest", Date: time.Now()},
			{ID: "n1", Title: "Older", Date: time.Now().Add(-time.Hour)},
		},
	}

	got := Dashboard(snap)
	if !got.TotalSpent.Equal(decimal.RequireFromString("1829")) {
		t.Fatalf("total = %s", got.TotalSpent)
	}
	if got.PendingChores != 1 || got.PendingShopping != 2 {
		t.Fatalf("pending = %d chores, %d items", got.PendingChores, got.PendingShopping)
	}
	if got.LatestAnnouncement != "Newest" {
		t.Fatalf("latest = %q", got.LatestAnnouncement)
	}
	if len(got.ByCategory) != 3 || len(got.Users) != 1 {
		t.Fatalf("unexpected breakdown %+v", got)
	}

	empty := Dashboard(core.Snapshot{})
	if empty.LatestAnnouncement != core.NoNewsTitle || !empty.TotalSpent.IsZero() {
		t.Fatalf("empty dashboard = %+v", empty)
	}
}
