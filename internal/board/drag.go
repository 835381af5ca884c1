package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"casa/internal/core"
)

// ContainerLocator resolves the top-left corner of the board surface that
// item positions are relative to.
type ContainerLocator interface {
	Origin() (core.Position, error)
}

// ContainerFunc adapts a function to ContainerLocator.
type ContainerFunc func() (core.Position, error)

func (f ContainerFunc) Origin() (core.Position, error) { return f() }

// FixedContainer is a board surface at a known origin.
type FixedContainer core.Position

func (c FixedContainer) Origin() (core.Position, error) { return core.Position(c), nil }

// Drag is one drag session. It is owned by a single pointer interaction and
// becomes inert once ended or aborted.
type Drag struct {
	ctl    *Controller
	id     string
	ref    core.ItemRef
	offset core.Position
	pos    core.Position
	done   bool
}

func (d *Drag) ID() string            { return d.id }
func (d *Drag) Ref() core.ItemRef     { return d.ref }
func (d *Drag) Offset() core.Position { return d.offset }

// Position returns the local position computed by the latest move.
func (d *Drag) Position() core.Position {
	d.ctl.mu.Lock()
	defer d.ctl.mu.Unlock()
	return d.pos
}

// Move places the item under the pointer: pointer - offset - container
// origin. Nothing is committed. When the container cannot be resolved the
// drag is aborted and the item returns to its committed position.
func (d *Drag) Move(pointer core.Position, container ContainerLocator) (core.Position, error) {
	var origin core.Position
	var err error
	if container == nil {
		err = errors.New("no container")
	} else {
		origin, err = container.Origin()
	}

	ctl := d.ctl
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if d.done {
		return d.pos, ErrDragFinished
	}
	if err != nil {
		ctl.finish(d)
		ctl.displayed[d.ref] = ctl.committed[d.ref]
		return ctl.committed[d.ref], fmt.Errorf("%w: %v", ErrLayoutResolution, err)
	}

	d.pos = pointer.Sub(d.offset).Sub(origin)
	ctl.displayed[d.ref] = d.pos
	return d.pos, nil
}

// End releases the item wherever the pointer is and commits the last local
// position. A drag without moves commits the position it started from.
func (d *Drag) End(ctx context.Context) (core.Position, error) {
	ctl := d.ctl
	ctl.mu.Lock()
	if d.done {
		ctl.mu.Unlock()
		return d.pos, ErrDragFinished
	}
	ctl.finish(d)
	pos := d.pos
	ctl.committed[d.ref] = pos
	ctl.displayed[d.ref] = pos
	ctl.mu.Unlock()

	if err := ctl.committer.CommitPosition(ctx, d.ref, pos); err != nil {
		return pos, fmt.Errorf("commit position of %s: %w", d.ref, err)
	}
	slog.DebugContext(ctx, "Drag committed", "item", d.ref.String(), "x", pos.X, "y", pos.Y)
	return pos, nil
}

// Abort ends the drag without committing; the item returns to its last
// committed position.
func (d *Drag) Abort() {
	ctl := d.ctl
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if d.done {
		return
	}
	ctl.finish(d)
	ctl.displayed[d.ref] = ctl.committed[d.ref]
}

// finish returns the controller to idle. Callers hold ctl.mu.
func (ctl *Controller) finish(d *Drag) {
	d.done = true
	if ctl.active == d {
		ctl.active = nil
	}
}
