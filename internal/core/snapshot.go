package core

// Snapshot is a point-in-time copy of a household's entities. Readers may
// keep and modify it freely; it shares nothing with the store.
type Snapshot struct {
	Users         []User             `json:"users"`
	Expenses      []Expense          `json:"expenses"`
	Recurring     []RecurringExpense `json:"recurring"`
	Chores        []Chore            `json:"chores"`
	Shopping      []ShoppingItem     `json:"shopping"`
	Announcements []Announcement     `json:"announcements"`
	Events        []CalendarEvent    `json:"events"`
	Polls         []Poll             `json:"polls"`
	Ledger        LedgerPlacement    `json:"ledger"`
}

// UserByID finds a user in the snapshot.
func (s Snapshot) UserByID(id string) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// Placements lists the committed placement of every board item, ledger
// first, then polls and announcements in collection order.
func (s Snapshot) Placements() []Placement {
	out := make([]Placement, 0, 1+len(s.Polls)+len(s.Announcements))
	out = append(out, Placement{Ref: Ledger(), Position: s.Ledger.Position, ZIndex: s.Ledger.ZIndex})
	for _, p := range s.Polls {
		out = append(out, Placement{
			Ref:      ItemRef{Kind: KindPoll, ID: p.ID},
			Position: PositionOr(p.Position, DefaultPollPosition),
			ZIndex:   IntOr(p.ZIndex, 0),
		})
	}
	for _, a := range s.Announcements {
		out = append(out, Placement{
			Ref:      ItemRef{Kind: KindAnnouncement, ID: a.ID},
			Position: PositionOr(a.Position, DefaultNotePosition),
			ZIndex:   IntOr(a.ZIndex, 0),
		})
	}
	return out
}
