// Package board manages where corkboard items sit and how they stack.
//
// A Controller owns the stacking counter and the displayed position of every
// board item (the ledger, each poll, each announcement). Items move through
// drag sessions: BeginDrag raises the item and returns a Drag value, moves
// update the displayed position only, and End commits the final position
// exactly once through the Committer.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"casa/internal/core"
)

// DraggingOrder is the display order of the item under the pointer.
const DraggingOrder = 9999

// PrimaryButton is the main pointer button.
const PrimaryButton = 0

var (
	ErrNotDraggable     = errors.New("press does not start a drag")
	ErrDragInProgress   = errors.New("another item is being dragged")
	ErrNoActiveDrag     = errors.New("no active drag")
	ErrDragFinished     = errors.New("drag already finished")
	ErrLayoutResolution = errors.New("board container cannot be resolved")
	ErrUnknownItem      = errors.New("unknown board item")
)

// Committer writes placement changes back to the entity store.
type Committer interface {
	CommitPosition(ctx context.Context, ref core.ItemRef, pos core.Position) error
	CommitOrder(ctx context.Context, ref core.ItemRef, order int) error
}

// ItemState is what the presentation layer needs to draw one item.
type ItemState struct {
	Ref          core.ItemRef  `json:"ref"`
	Position     core.Position `json:"position"`
	Order        int           `json:"order"`
	DisplayOrder int           `json:"displayOrder"`
	Dragging     bool          `json:"dragging"`
	HandleOnly   bool          `json:"handleOnly"`
}

type Controller struct {
	mu        sync.Mutex
	committer Committer

	// counter is the highest stacking order handed out so far.
	counter   int
	items     []core.ItemRef
	orders    map[core.ItemRef]int
	displayed map[core.ItemRef]core.Position
	committed map[core.ItemRef]core.Position
	handles   map[core.ItemRef]bool
	active    *Drag
}

// NewController seeds the layout from committed placements. The stacking
// counter starts at the highest known order, and never below
// core.DefaultBaseOrder.
func NewController(placements []core.Placement, c Committer) *Controller {
	ctl := &Controller{
		committer: c,
		counter:   core.DefaultBaseOrder,
		handles:   make(map[core.ItemRef]bool),
	}
	ctl.load(placements)
	return ctl
}

// load replaces the layout with placements, keeping the dragged item's
// displayed position. Callers hold ctl.mu.
func (ctl *Controller) load(placements []core.Placement) {
	displayed := make(map[core.ItemRef]core.Position, len(placements))
	ctl.items = make([]core.ItemRef, 0, len(placements))
	ctl.orders = make(map[core.ItemRef]int, len(placements))
	ctl.committed = make(map[core.ItemRef]core.Position, len(placements))

	for _, p := range placements {
		ctl.items = append(ctl.items, p.Ref)
		ctl.orders[p.Ref] = p.ZIndex
		ctl.committed[p.Ref] = p.Position
		displayed[p.Ref] = p.Position
		if ctl.active != nil && ctl.active.ref == p.Ref {
			displayed[p.Ref] = ctl.active.pos
		}
		if p.ZIndex > ctl.counter {
			ctl.counter = p.ZIndex
		}
	}
	ctl.displayed = displayed
}

// Sync re-reads committed placements, for example after the store changed
// for reasons other than a drag. The item being dragged keeps its local
// position until release.
func (ctl *Controller) Sync(placements []core.Placement) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	ctl.load(placements)
}

// SetHandleOnly restricts drags of ref to presses on its drag handle.
func (ctl *Controller) SetHandleOnly(ref core.ItemRef, handleOnly bool) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if handleOnly {
		ctl.handles[ref] = true
	} else {
		delete(ctl.handles, ref)
	}
}

// NextOrder reserves the stacking order for a newly created item.
func (ctl *Controller) NextOrder() int {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	ctl.counter++
	return ctl.counter
}

// Add registers a newly created item at its committed placement.
func (ctl *Controller) Add(p core.Placement) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if _, ok := ctl.orders[p.Ref]; !ok {
		ctl.items = append(ctl.items, p.Ref)
	}
	ctl.orders[p.Ref] = p.ZIndex
	ctl.committed[p.Ref] = p.Position
	ctl.displayed[p.Ref] = p.Position
	if p.ZIndex > ctl.counter {
		ctl.counter = p.ZIndex
	}
}

// BringToFront gives ref the next stacking order and commits it. An item
// already holding the highest order is left untouched.
func (ctl *Controller) BringToFront(ctx context.Context, ref core.ItemRef) (int, error) {
	ctl.mu.Lock()
	order, changed, err := ctl.raise(ref)
	ctl.mu.Unlock()
	if err != nil || !changed {
		return order, err
	}
	if err := ctl.committer.CommitOrder(ctx, ref, order); err != nil {
		return order, fmt.Errorf("commit order of %s: %w", ref, err)
	}
	return order, nil
}

// raise updates the in-memory order. Callers hold ctl.mu.
func (ctl *Controller) raise(ref core.ItemRef) (order int, changed bool, err error) {
	current, ok := ctl.orders[ref]
	if !ok {
		return 0, false, fmt.Errorf("%w: %s", ErrUnknownItem, ref)
	}
	if current == ctl.counter {
		return current, false, nil
	}
	ctl.counter++
	ctl.orders[ref] = ctl.counter
	return ctl.counter, true, nil
}

// Press describes the pointer press that may start a drag. Pointer and
// ItemOrigin share one coordinate space (the viewport).
type Press struct {
	Button     int
	Pointer    core.Position
	ItemOrigin core.Position
	OnHandle   bool
}

// BeginDrag starts a drag of ref. The item is raised and its new order
// committed before the first move; the pointer offset from the item's
// top-left corner is fixed for the whole drag.
func (ctl *Controller) BeginDrag(ctx context.Context, ref core.ItemRef, press Press) (*Drag, error) {
	if press.Button != PrimaryButton {
		return nil, ErrNotDraggable
	}

	ctl.mu.Lock()
	if ctl.handles[ref] && !press.OnHandle {
		ctl.mu.Unlock()
		return nil, ErrNotDraggable
	}
	if ctl.active != nil {
		ctl.mu.Unlock()
		return nil, ErrDragInProgress
	}
	order, changed, err := ctl.raise(ref)
	if err != nil {
		ctl.mu.Unlock()
		return nil, err
	}
	d := &Drag{
		ctl:    ctl,
		id:     uuid.NewString(),
		ref:    ref,
		offset: press.Pointer.Sub(press.ItemOrigin),
		pos:    ctl.displayed[ref],
	}
	ctl.active = d
	ctl.mu.Unlock()

	slog.DebugContext(ctx, "Drag started", "item", ref.String(), "order", order)

	if changed {
		if err := ctl.committer.CommitOrder(ctx, ref, order); err != nil {
			slog.WarnContext(ctx, "Failed to commit raised order", "item", ref.String(), "error", err)
		}
	}
	return d, nil
}

// Active returns the drag in progress, if any.
func (ctl *Controller) Active() (*Drag, bool) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.active, ctl.active != nil
}

// Position returns the displayed position of ref.
func (ctl *Controller) Position(ref core.ItemRef) (core.Position, bool) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	p, ok := ctl.displayed[ref]
	return p, ok
}

// Order returns the stacking order of ref.
func (ctl *Controller) Order(ref core.ItemRef) (int, bool) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	o, ok := ctl.orders[ref]
	return o, ok
}

// DisplayOrder is the order to render ref with: DraggingOrder while the item
// is dragged, its stacking order otherwise.
func (ctl *Controller) DisplayOrder(ref core.ItemRef) int {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if ctl.active != nil && ctl.active.ref == ref {
		return DraggingOrder
	}
	return ctl.orders[ref]
}

// Layout lists every item in registration order.
func (ctl *Controller) Layout() []ItemState {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	out := make([]ItemState, 0, len(ctl.items))
	for _, ref := range slices.Clone(ctl.items) {
		dragging := ctl.active != nil && ctl.active.ref == ref
		display := ctl.orders[ref]
		if dragging {
			display = DraggingOrder
		}
		out = append(out, ItemState{
			Ref:          ref,
			Position:     ctl.displayed[ref],
			Order:        ctl.orders[ref],
			DisplayOrder: display,
			Dragging:     dragging,
			HandleOnly:   ctl.handles[ref],
		})
	}
	return out
}
