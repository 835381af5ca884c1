package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"casa/internal/core"
	"casa/internal/store"
)

// Store keeps one household in memory. Expenses, recurring definitions,
// announcements and polls are kept newest first; chores, shopping items and
// calendar events in insertion order.
type Store struct {
	mu            sync.Mutex
	users         []core.User
	expenses      []core.Expense
	recurring     []core.RecurringExpense
	chores        []core.Chore
	items         []core.ShoppingItem
	announcements []core.Announcement
	events        []core.CalendarEvent
	polls         []core.Poll
	ledger        core.LedgerPlacement

	// used holds every id ever stored, deleted ones included.
	used map[string]struct{}
}

var _ store.Store = (*Store)(nil)

// New builds a store holding a copy of seed.
func New(seed core.Snapshot) *Store {
	s := &Store{
		users:         cloneOf(seed.Users),
		expenses:      cloneExpenses(seed.Expenses),
		recurring:     cloneRecurring(seed.Recurring),
		chores:        cloneOf(seed.Chores),
		items:         cloneOf(seed.Shopping),
		announcements: cloneAnnouncements(seed.Announcements),
		events:        cloneOf(seed.Events),
		polls:         clonePolls(seed.Polls),
		ledger:        seed.Ledger,
		used:          make(map[string]struct{}),
	}

	for _, e := range s.expenses {
		s.used[e.ID] = struct{}{}
	}
	for _, r := range s.recurring {
		s.used[r.ID] = struct{}{}
	}
	for _, c := range s.chores {
		s.used[c.ID] = struct{}{}
	}
	for _, it := range s.items {
		s.used[it.ID] = struct{}{}
	}
	for _, a := range s.announcements {
		s.used[a.ID] = struct{}{}
	}
	for _, e := range s.events {
		s.used[e.ID] = struct{}{}
	}
	for _, p := range s.polls {
		s.used[p.ID] = struct{}{}
	}
	return s
}

func (s *Store) Users(_ context.Context) []core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOf(s.users)
}

// Snapshot returns a deep copy of every collection.
func (s *Store) Snapshot(_ context.Context) core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Snapshot{
		Users:         cloneOf(s.users),
		Expenses:      cloneExpenses(s.expenses),
		Recurring:     cloneRecurring(s.recurring),
		Chores:        cloneOf(s.chores),
		Shopping:      cloneOf(s.items),
		Announcements: cloneAnnouncements(s.announcements),
		Events:        cloneOf(s.events),
		Polls:         clonePolls(s.polls),
		Ledger:        s.ledger,
	}
}

// claim reserves ids for new entities. Callers hold s.mu.
func (s *Store) claim(ids ...string) error {
	for i, id := range ids {
		if _, ok := s.used[id]; ok || slices.Contains(ids[:i], id) {
			return fmt.Errorf("%w: %s", store.ErrDuplicateID, id)
		}
	}
	for _, id := range ids {
		s.used[id] = struct{}{}
	}
	return nil
}

func (s *Store) AddExpense(_ context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claim(e.ID); err != nil {
		return err
	}
	s.expenses = slices.Insert(s.expenses, 0, e.Clone())
	return nil
}

// AddRecurring prepends the definition and places the generated batch, in
// generation order, ahead of the existing expenses.
func (s *Store) AddRecurring(_ context.Context, def core.RecurringExpense, instances []core.Expense) error {
	if err := def.Template().Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(instances)+1)
	ids = append(ids, def.ID)
	for _, e := range instances {
		ids = append(ids, e.ID)
	}
	if err := s.claim(ids...); err != nil {
		return err
	}

	def.SplitAmong = slices.Clone(def.SplitAmong)
	s.recurring = slices.Insert(s.recurring, 0, def)
	s.expenses = append(cloneExpenses(instances), s.expenses...)
	return nil
}

func (s *Store) AddChore(_ context.Context, c core.Chore) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claim(c.ID); err != nil {
		return err
	}
	s.chores = append(s.chores, c)
	return nil
}

func (s *Store) ToggleChore(_ context.Context, id string) (core.Chore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chores {
		if s.chores[i].ID == id {
			s.chores[i].Completed = !s.chores[i].Completed
			return s.chores[i], nil
		}
	}
	return core.Chore{}, fmt.Errorf("chore %s: %w", id, store.ErrNotFound)
}

func (s *Store) AddItem(_ context.Context, it core.ShoppingItem) error {
	if err := it.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claim(it.ID); err != nil {
		return err
	}
	s.items = append(s.items, it)
	return nil
}

func (s *Store) ToggleItem(_ context.Context, id string) (core.ShoppingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Completed = !s.items[i].Completed
			return s.items[i], nil
		}
	}
	return core.ShoppingItem{}, fmt.Errorf("shopping item %s: %w", id, store.ErrNotFound)
}

// DeleteItem removes the item for good; its id stays reserved.
func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.items, func(it core.ShoppingItem) bool { return it.ID == id })
	if i < 0 {
		return fmt.Errorf("shopping item %s: %w", id, store.ErrNotFound)
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *Store) AddEvent(_ context.Context, e core.CalendarEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claim(e.ID); err != nil {
		return err
	}
	s.events = append(s.events, e)
	return nil
}

func (s *Store) AddAnnouncement(_ context.Context, a core.Announcement) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claim(a.ID); err != nil {
		return err
	}
	s.announcements = slices.Insert(s.announcements, 0, a.Clone())
	return nil
}

func (s *Store) AddPoll(_ context.Context, p core.Poll) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claim(p.ID); err != nil {
		return err
	}
	p = p.Clone()
	if p.Status == "" {
		p.Status = core.PollOpen
	}
	s.polls = slices.Insert(s.polls, 0, p)
	return nil
}

// Vote records userID's vote, replacing any earlier one.
func (s *Store) Vote(_ context.Context, pollID, userID string, v core.Vote) (core.Poll, error) {
	if !v.IsValid() {
		return core.Poll{}, core.ErrInvalidVote
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.polls {
		if s.polls[i].ID != pollID {
			continue
		}
		if s.polls[i].Votes == nil {
			s.polls[i].Votes = make(map[string]core.Vote)
		}
		s.polls[i].Votes[userID] = v
		return s.polls[i].Clone(), nil
	}
	return core.Poll{}, fmt.Errorf("poll %s: %w", pollID, store.ErrNotFound)
}

func (s *Store) SetPosition(_ context.Context, ref core.ItemRef, pos core.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.place(ref, func(p **core.Position, _ **int) {
		*p = &pos
	}, func(l *core.LedgerPlacement) {
		l.Position = pos
	})
}

func (s *Store) SetOrder(_ context.Context, ref core.ItemRef, order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.place(ref, func(_ **core.Position, z **int) {
		*z = &order
	}, func(l *core.LedgerPlacement) {
		l.ZIndex = order
	})
}

// place applies a placement edit to the item behind ref. Callers hold s.mu.
func (s *Store) place(ref core.ItemRef, item func(**core.Position, **int), ledger func(*core.LedgerPlacement)) error {
	switch ref.Kind {
	case core.KindLedger:
		ledger(&s.ledger)
		return nil
	case core.KindPoll:
		for i := range s.polls {
			if s.polls[i].ID == ref.ID {
				item(&s.polls[i].Position, &s.polls[i].ZIndex)
				return nil
			}
		}
	case core.KindAnnouncement:
		for i := range s.announcements {
			if s.announcements[i].ID == ref.ID {
				item(&s.announcements[i].Position, &s.announcements[i].ZIndex)
				return nil
			}
		}
	}
	return fmt.Errorf("board item %s: %w", ref, store.ErrNotFound)
}

// cloneOf copies a slice and never returns nil.
func cloneOf[T any](in []T) []T {
	return append(make([]T, 0, len(in)), in...)
}

func cloneExpenses(in []core.Expense) []core.Expense {
	out := make([]core.Expense, 0, len(in))
	for _, e := range in {
		out = append(out, e.Clone())
	}
	return out
}

func cloneRecurring(in []core.RecurringExpense) []core.RecurringExpense {
	out := make([]core.RecurringExpense, 0, len(in))
	for _, r := range in {
		r.SplitAmong = slices.Clone(r.SplitAmong)
		out = append(out, r)
	}
	return out
}

func cloneAnnouncements(in []core.Announcement) []core.Announcement {
	out := make([]core.Announcement, 0, len(in))
	for _, a := range in {
		out = append(out, a.Clone())
	}
	return out
}

func clonePolls(in []core.Poll) []core.Poll {
	out := make([]core.Poll, 0, len(in))
	for _, p := range in {
		out = append(out, p.Clone())
	}
	return out
}
