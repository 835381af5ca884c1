// Package session keeps one isolated in-memory household per browser
// session and runs the assistant-driven flows against it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"casa/internal/assistant"
	"casa/internal/board"
	"casa/internal/commands"
	"casa/internal/core"
	"casa/internal/store/memory"
	"casa/internal/views"
)

// ErrClosed is returned when a household was torn down while an assistant
// call was pending. The late result is discarded.
var ErrClosed = errors.New("household closed")

// ScheduleUnavailable is shown when auto-assign produced nothing.
const ScheduleUnavailable = "Could not generate schedule. Try again later."

// Controls that may hold a pending assistant request.
const (
	ControlAutoAssign   = "chores.auto-assign"
	ControlAnalysis     = "expenses.analysis"
	ControlShoppingAdd  = "shopping.add"
	ControlDraftNote    = "board.draft-announcement"
	ControlRewritePoll  = "board.rewrite-poll"
	DefaultAnnounceTone = "friendly"
)

// AutoAssignTasks is the fixed task list offered to the assistant.
var AutoAssignTasks = []string{"Clean Kitchen", "Take out Trash", "Vacuum Living Room", "Clean Bathroom", "Water Plants"}

// Household bundles the per-session state: the entity store, the command
// dispatcher, the board layout and the assistant guard.
type Household struct {
	ID         string
	Store      *memory.Store
	Dispatcher *commands.Dispatcher
	Board      *board.Controller
	Guard      *assistant.Guard

	advisor *assistant.Advisor
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewHousehold builds a household from seed and wires its components.
func NewHousehold(id string, seed core.Snapshot, deps Deps) *Household {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	opts := []commands.Option{commands.WithMetrics(deps.Metrics), commands.WithClock(now)}
	if deps.Publisher != nil {
		opts = append(opts, commands.WithPublisher(deps.Publisher))
	}

	st := memory.New(seed)
	d := commands.NewDispatcher(id, st, opts...)
	ctl := board.NewController(seed.Placements(), commands.BoardCommitter{Dispatcher: d})
	d.AttachBoard(ctl)

	ctx, cancel := context.WithCancel(context.Background())
	return &Household{
		ID:         id,
		Store:      st,
		Dispatcher: d,
		Board:      ctl,
		Guard:      assistant.NewGuard(),
		advisor:    deps.Advisor,
		now:        now,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Close tears the household down. Pending assistant calls are cancelled
// and their results dropped.
func (h *Household) Close() {
	h.cancel()
}

func (h *Household) Closed() bool {
	return h.ctx.Err() != nil
}

// Context is cancelled when the household is torn down.
func (h *Household) Context() context.Context {
	return h.ctx
}

// Snapshot is a copy of every collection.
func (h *Household) Snapshot(ctx context.Context) core.Snapshot {
	return h.Store.Snapshot(ctx)
}

// SyncBoard re-reads placements from the store into the layout controller.
func (h *Household) SyncBoard(ctx context.Context) {
	h.Board.Sync(h.Store.Snapshot(ctx).Placements())
}

// AutoAssignResult is the outcome of a chore auto-assign request.
type AutoAssignResult struct {
	Chores  []core.Chore `json:"chores"`
	Message string       `json:"message,omitempty"`
}

// AutoAssignChores asks the assistant to split AutoAssignTasks among the
// roommates and adds one weekly chore per suggestion, due in seven days.
func (h *Household) AutoAssignChores(ctx context.Context) (AutoAssignResult, error) {
	users := h.Store.Users(ctx)
	suggestions, err := guarded(ctx, h, ControlAutoAssign, requestKey(userNames(users)...), func(c context.Context) []assistant.ChoreSuggestion {
		return h.advisor.SuggestChoreAssignments(c, users, AutoAssignTasks)
	})
	if err != nil {
		return AutoAssignResult{}, err
	}
	if len(suggestions) == 0 {
		return AutoAssignResult{Chores: []core.Chore{}, Message: ScheduleUnavailable}, nil
	}

	due := h.now().Add(commands.DefaultChoreDue)
	out := AutoAssignResult{Chores: make([]core.Chore, 0, len(suggestions))}
	for _, s := range suggestions {
		res, err := h.Dispatcher.Dispatch(ctx, commands.AddChore{
			Title:      s.Title,
			AssignedTo: assigneeFor(users, s.AssignedToName),
			DueDate:    due,
			Frequency:  core.ChoreWeekly,
		})
		if errors.Is(err, core.ErrValidationSkip) {
			slog.DebugContext(ctx, "Skipping chore suggestion", "title", s.Title, "reason", err)
			continue
		}
		if err != nil {
			return out, fmt.Errorf("add suggested chore: %w", err)
		}
		out.Chores = append(out.Chores, res.Entity.(core.Chore))
	}
	return out, nil
}

// assigneeFor matches a suggested name against the roster, falling back to
// the first user.
func assigneeFor(users []core.User, name string) string {
	for _, u := range users {
		if u.Name == name {
			return u.ID
		}
	}
	if len(users) == 0 {
		return ""
	}
	return users[0].ID
}

// AnalyzeExpenses summarises the expenses that pass filter.
func (h *Household) AnalyzeExpenses(ctx context.Context, filter views.ExpenseFilter) (string, error) {
	snap := h.Store.Snapshot(ctx)
	expenses := views.FilterExpenses(snap.Expenses, filter)
	return guarded(ctx, h, ControlAnalysis, requestKey(expenseIDs(expenses)...), func(c context.Context) string {
		return h.advisor.SummarizeExpenses(c, expenses, snap.Users)
	})
}

// AddShoppingItem categorises name with the assistant and adds the item.
func (h *Household) AddShoppingItem(ctx context.Context, name, addedBy string) (commands.Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return commands.Result{Kind: commands.KindAddShoppingItem}, core.ErrEmptyName
	}
	category, err := guarded(ctx, h, ControlShoppingAdd, requestKey(name), func(c context.Context) string {
		return h.advisor.CategorizeItem(c, name)
	})
	if err != nil {
		return commands.Result{Kind: commands.KindAddShoppingItem}, err
	}
	return h.Dispatcher.Dispatch(ctx, commands.AddShoppingItem{Name: name, AddedBy: addedBy, Category: category})
}

// DraftAnnouncement returns a suggested note body for topic.
func (h *Household) DraftAnnouncement(ctx context.Context, topic, tone string) (string, error) {
	if tone == "" {
		tone = DefaultAnnounceTone
	}
	return guarded(ctx, h, ControlDraftNote, requestKey(topic, tone), func(c context.Context) string {
		return h.advisor.DraftAnnouncement(c, topic, tone)
	})
}

// RewritePoll returns a cleaner phrasing of a poll proposal.
func (h *Household) RewritePoll(ctx context.Context, draft string) (string, error) {
	return guarded(ctx, h, ControlRewritePoll, requestKey(draft), func(c context.Context) string {
		return h.advisor.RewritePollProposal(c, draft)
	})
}

// Pending reports whether control has an assistant request in flight.
func (h *Household) Pending(control string) bool {
	return h.Guard.Pending(control)
}

// requestKey joins the inputs of an assistant request. Only submissions
// with equal keys share a pending result.
func requestKey(parts ...string) string {
	return strings.Join(parts, "\x00")
}

func userNames(users []core.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID + "=" + u.Name
	}
	return out
}

func expenseIDs(expenses []core.Expense) []string {
	out := make([]string, len(expenses))
	for i, e := range expenses {
		out[i] = e.ID
	}
	return out
}

// guarded runs fn through the household guard with the household context,
// so teardown cancels the call. A result that arrives after teardown is
// reported as ErrClosed and must not be applied.
func guarded[T any](ctx context.Context, h *Household, control, input string, fn func(context.Context) T) (T, error) {
	var zero T
	if h.Closed() {
		return zero, ErrClosed
	}
	v, _, err := assistant.Do(ctx, h.Guard, control, input, func(context.Context) T {
		return fn(h.ctx)
	})
	if err != nil {
		return zero, err
	}
	if h.Closed() {
		slog.InfoContext(ctx, "Discarding assistant result for closed household", "household", h.ID, "control", control)
		return zero, ErrClosed
	}
	return v, nil
}
