// Package store defines the household entity store ports. Implementations
// keep every collection in memory for the lifetime of a session.
package store

import (
	"context"
	"errors"

	"casa/internal/core"
)

var (
	ErrNotFound    = errors.New("entity not found")
	ErrDuplicateID = errors.New("duplicate entity id")
)

// Ports consumed by the command dispatcher and the read side.
type (
	Reader interface {
		Users(ctx context.Context) []core.User
		Snapshot(ctx context.Context) core.Snapshot
	}

	ExpenseWriter interface {
		AddExpense(ctx context.Context, e core.Expense) error
		// AddRecurring stores a definition together with its generated batch.
		AddRecurring(ctx context.Context, def core.RecurringExpense, instances []core.Expense) error
	}

	ChoreWriter interface {
		AddChore(ctx context.Context, c core.Chore) error
		ToggleChore(ctx context.Context, id string) (core.Chore, error)
	}

	ShoppingWriter interface {
		AddItem(ctx context.Context, it core.ShoppingItem) error
		ToggleItem(ctx context.Context, id string) (core.ShoppingItem, error)
		DeleteItem(ctx context.Context, id string) error
	}

	CalendarWriter interface {
		AddEvent(ctx context.Context, e core.CalendarEvent) error
	}

	// BoardWriter mutates corkboard entities and their placement.
	BoardWriter interface {
		AddAnnouncement(ctx context.Context, a core.Announcement) error
		AddPoll(ctx context.Context, p core.Poll) error
		Vote(ctx context.Context, pollID, userID string, v core.Vote) (core.Poll, error)
		SetPosition(ctx context.Context, ref core.ItemRef, pos core.Position) error
		SetOrder(ctx context.Context, ref core.ItemRef, order int) error
	}

	// Store is the full household entity store.
	Store interface {
		Reader
		ExpenseWriter
		ChoreWriter
		ShoppingWriter
		CalendarWriter
		BoardWriter
	}
)
