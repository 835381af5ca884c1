package commands

import (
	"context"

	"casa/internal/core"
)

// BoardCommitter routes the layout controller's writes through the
// dispatcher so placement changes are validated, counted and published like
// any other command.
type BoardCommitter struct {
	Dispatcher *Dispatcher
}

func (c BoardCommitter) CommitPosition(ctx context.Context, ref core.ItemRef, pos core.Position) error {
	_, err := c.Dispatcher.Dispatch(ctx, UpdatePosition{Ref: ref, Position: pos})
	return err
}

func (c BoardCommitter) CommitOrder(ctx context.Context, ref core.ItemRef, order int) error {
	_, err := c.Dispatcher.Dispatch(ctx, UpdateOrder{Ref: ref, Order: order})
	return err
}
