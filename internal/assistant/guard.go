package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Guard tracks assistant requests per presentation control. While a
// request from a control is pending, a repeated submission of the same
// input waits for and shares its result instead of calling the service
// again. A submission with different input runs on its own.
type Guard struct {
	group singleflight.Group

	mu      sync.Mutex
	waiting map[string]int
}

func NewGuard() *Guard {
	return &Guard{waiting: make(map[string]int)}
}

// Pending reports whether control has a request in flight.
func (g *Guard) Pending(control string) bool {
	return g.waiters(control) > 0
}

func (g *Guard) waiters(control string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiting[control]
}

func (g *Guard) enter(control string) {
	g.mu.Lock()
	g.waiting[control]++
	g.mu.Unlock()
}

func (g *Guard) leave(control string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.waiting[control]--
	if g.waiting[control] <= 0 {
		delete(g.waiting, control)
	}
}

// Do runs fn for control and input unless a run for the same pair is
// already pending, in which case it waits for that run. shared reports
// whether the value came from another submission. fn outlives the
// cancellation of ctx; only the wait does not.
func Do[T any](ctx context.Context, g *Guard, control, input string, fn func(context.Context) T) (v T, shared bool, err error) {
	g.enter(control)
	defer g.leave(control)

	runCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(flightKey(control, input), func() (any, error) {
		return fn(runCtx), nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	case res := <-ch:
		return res.Val.(T), res.Shared, nil
	}
}

// flightKey identifies one request: the control it came from and a digest
// of its input.
func flightKey(control, input string) string {
	sum := sha256.Sum256([]byte(input))
	return control + ":" + hex.EncodeToString(sum[:])
}
