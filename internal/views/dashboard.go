package views

import (
	"github.com/shopspring/decimal"

	"casa/internal/core"
)

// DashboardSummary is the landing page overview.
type DashboardSummary struct {
	TotalSpent         decimal.Decimal       `json:"totalSpent"`
	PendingChores      int                   `json:"pendingChores"`
	PendingShopping    int                   `json:"pendingShopping"`
	LatestAnnouncement string                `json:"latestAnnouncement"`
	ByCategory         []core.CategoryAmount `json:"byCategory"`
	Users              []core.User           `json:"users"`
}

// Dashboard summarises a household snapshot. Announcements are stored
// newest first, so the latest is the first one.
func Dashboard(s core.Snapshot) DashboardSummary {
	pendingChores, _ := PartitionChores(s.Chores)
	pendingItems, _ := PartitionShopping(s.Shopping)

	latest := core.NoNewsTitle
	if len(s.Announcements) > 0 {
		latest = s.Announcements[0].Title
	}

	return DashboardSummary{
		TotalSpent:         TotalAmount(s.Expenses),
		PendingChores:      len(pendingChores),
		PendingShopping:    len(pendingItems),
		LatestAnnouncement: latest,
		ByCategory:         CategoryBreakdown(s.Expenses),
		Users:              append([]core.User(nil), s.Users...),
	}
}

// ChoreCounts returns the sizes of the active and history tabs.
func ChoreCounts(chores []core.Chore) (active, history int) {
	for _, c := range chores {
		if c.Completed {
			history++
		} else {
			active++
		}
	}
	return active, history
}
