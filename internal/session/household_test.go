package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"casa/internal/assistant"
	"casa/internal/core"
	"casa/internal/store/memory"
	"casa/internal/views"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, p assistant.Prompt) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

var (
	ctx   = context.Background()
	clock = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
)

func newHousehold(t *testing.T, c assistant.Completer) *Household {
	t.Helper()
	deps := Deps{
		Advisor: assistant.NewAdvisor(c, time.Second, nil),
		Now:     func() time.Time { return clock },
	}
	return NewHousehold("h1", core.Snapshot{Users: memory.DefaultUsers()}, deps)
}

func replying(text string, err error) *mockCompleter {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, mock.Anything).Return(text, err)
	return c
}

func TestAutoAssignChores(t *testing.T) {
	h := newHousehold(t, replying(`[
		{"title":"Clean Kitchen","assignedToName":"Jordan","frequency":"Weekly"},
		{"title":"Water Plants","assignedToName":"Sam","frequency":"Daily"},
		{"title":"","assignedToName":"Alex"}
	]`, nil))

	res, err := h.AutoAssignChores(ctx)
	require.NoError(t, err)

	assert.Empty(t, res.Message)
	require.Len(t, res.Chores, 2, "suggestions without a title are skipped")
	assert.Equal(t, "u2", res.Chores[0].AssignedTo)
	assert.Equal(t, "u1", res.Chores[1].AssignedTo, "unknown names fall back to the first user")
	for _, c := range res.Chores {
		assert.Equal(t, core.ChoreWeekly, c.Frequency)
		assert.Equal(t, clock.Add(7*24*time.Hour), c.DueDate)
		assert.False(t, c.Completed)
	}
	assert.Len(t, h.Snapshot(ctx).Chores, 2)
}

func TestAutoAssignChoresEmpty(t *testing.T) {
	for name, c := range map[string]*mockCompleter{
		"failure":    replying("", errors.New("quota")),
		"empty list": replying("[]", nil),
	} {
		t.Run(name, func(t *testing.T) {
			h := newHousehold(t, c)
			res, err := h.AutoAssignChores(ctx)
			require.NoError(t, err)
			assert.Equal(t, ScheduleUnavailable, res.Message)
			assert.Empty(t, res.Chores)
			assert.Empty(t, h.Snapshot(ctx).Chores)
		})
	}
}

func TestAnalyzeExpensesUsesFilteredLedger(t *testing.T) {
	c := replying("Alex pays for food.", nil)
	deps := Deps{Advisor: assistant.NewAdvisor(c, time.Second, nil), Now: func() time.Time { return clock }}
	h := NewHousehold("h1", memory.Showcase(memory.DefaultUsers(), clock), deps)

	got, err := h.AnalyzeExpenses(ctx, views.ExpenseFilter{Category: core.CategoryRent})
	require.NoError(t, err)
	assert.Equal(t, "Alex pays for food.", got)

	c.AssertCalled(t, "Complete", mock.Anything, mock.MatchedBy(func(p assistant.Prompt) bool {
		return strings.Contains(p.Text, "Monthly Rent: $1500.00") &&
			!strings.Contains(p.Text, "Grocery Run") &&
			!strings.Contains(p.Text, "Internet Bill")
	}))
}

func TestAddShoppingItemCategorises(t *testing.T) {
	h := newHousehold(t, replying("Fresh Produce", nil))

	res, err := h.AddShoppingItem(ctx, "  Apples ", "")
	require.NoError(t, err)

	it := res.Entity.(core.ShoppingItem)
	assert.Equal(t, "Apples", it.Name)
	assert.Equal(t, assistant.CategoryFreshProduce, it.Category)
	assert.Equal(t, "u1", it.AddedBy)
}

func TestAddShoppingItemEmptyNameSkipsAssistant(t *testing.T) {
	c := &mockCompleter{}
	h := newHousehold(t, c)

	_, err := h.AddShoppingItem(ctx, "   ", "u1")
	assert.ErrorIs(t, err, core.ErrValidationSkip)
	c.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestDraftsFallBack(t *testing.T) {
	h := newHousehold(t, replying("", errors.New("down")))

	note, err := h.DraftAnnouncement(ctx, "quiet hours", "")
	require.NoError(t, err)
	assert.Equal(t, "", note)

	poll, err := h.RewritePoll(ctx, "new couch?")
	require.NoError(t, err)
	assert.Equal(t, "new couch?", poll)
}

func TestNilAdvisorFallsBack(t *testing.T) {
	h := NewHousehold("h1", core.Snapshot{Users: memory.DefaultUsers()}, Deps{})
	got, err := h.RewritePoll(ctx, "idea")
	require.NoError(t, err)
	assert.Equal(t, "idea", got)
}

func TestOverlappingRequestsKeepTheirOwnInput(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	seen := 0
	blocking := func(reply func(assistant.Prompt) (string, error)) assistant.Completer {
		return assistant.CompleterFunc(func(_ context.Context, p assistant.Prompt) (string, error) {
			mu.Lock()
			seen++
			mu.Unlock()
			<-release
			return reply(p)
		})
	}
	started := func(n int) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			return seen == n
		}
	}

	t.Run("shopping categories", func(t *testing.T) {
		release = make(chan struct{})
		seen = 0
		h := newHousehold(t, blocking(func(p assistant.Prompt) (string, error) {
			if strings.Contains(p.Text, `"Chips"`) {
				return "Snacks", nil
			}
			return "Meat and Fish", nil
		}))

		names := []string{"Steak", "Chips"}
		var wg sync.WaitGroup
		for i, name := range names {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.AddShoppingItem(ctx, name, "u1")
				assert.NoError(t, err)
			}()
			require.Eventually(t, started(i+1), time.Second, time.Millisecond)
		}
		close(release)
		wg.Wait()

		got := map[string]string{}
		for _, it := range h.Snapshot(ctx).Shopping {
			got[it.Name] = it.Category
		}
		assert.Equal(t, map[string]string{
			"Steak": assistant.CategoryMeatAndFish,
			"Chips": assistant.CategorySnacks,
		}, got)
	})

	t.Run("poll rewrite fallbacks", func(t *testing.T) {
		release = make(chan struct{})
		seen = 0
		h := newHousehold(t, blocking(func(assistant.Prompt) (string, error) {
			return "", errors.New("down")
		}))

		drafts := []string{"Buy a new couch?", "Get a cat?"}
		results := make([]string, len(drafts))
		var wg sync.WaitGroup
		for i, draft := range drafts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := h.RewritePoll(ctx, draft)
				assert.NoError(t, err)
				results[i] = v
			}()
			require.Eventually(t, started(i+1), time.Second, time.Millisecond)
		}
		close(release)
		wg.Wait()

		assert.Equal(t, drafts, results)
	})
}

func TestStaleResultIsDiscardedAfterTeardown(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow := assistant.CompleterFunc(func(c context.Context, _ assistant.Prompt) (string, error) {
		close(started)
		select {
		case <-release:
		case <-c.Done():
		}
		return "Household Items", nil
	})
	h := newHousehold(t, slow)

	var (
		wg  sync.WaitGroup
		err error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err = h.AddShoppingItem(ctx, "Soap", "u1")
	}()

	<-started
	require.Eventually(t, func() bool { return h.Pending(ControlShoppingAdd) }, time.Second, time.Millisecond)
	h.Close()
	close(release)
	wg.Wait()

	assert.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, h.Snapshot(ctx).Shopping, "late result must not touch the store")

	_, err = h.RewritePoll(ctx, "x")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBoardCommitsThroughDispatcher(t *testing.T) {
	h := NewHousehold("h1", memory.Showcase(memory.DefaultUsers(), clock), Deps{})

	poll := core.ItemRef{Kind: core.KindPoll, ID: "p1"}
	order, err := h.Board.BringToFront(ctx, poll)
	require.NoError(t, err)
	assert.Equal(t, 11, order)

	snap := h.Snapshot(ctx)
	require.NotNil(t, snap.Polls[0].ZIndex)
	assert.Equal(t, 11, *snap.Polls[0].ZIndex)

	// A new note lands on top of the raised poll.
	_, err = h.Dispatcher.Dispatch(ctx, newNote("Fridge cleanout"))
	require.NoError(t, err)
	layout := h.Board.Layout()
	last := layout[len(layout)-1]
	assert.Equal(t, core.KindAnnouncement, last.Ref.Kind)
	assert.Equal(t, 12, last.Order)
}
