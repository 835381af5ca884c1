package session

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"casa/internal/assistant"
	"casa/internal/cache"
	"casa/internal/commands"
	"casa/internal/core"
	"casa/internal/metrics"
	"casa/internal/store/memory"
)

const (
	DefaultTTL         = 2 * time.Hour
	DefaultMaxSessions = 1000
)

// Deps are the collaborators shared by every household.
type Deps struct {
	Advisor   *assistant.Advisor
	Publisher commands.EventPublisher
	Metrics   *metrics.Metrics
	// Roster replaces the default users when non-empty.
	Roster []core.User
	// Showcase seeds new households with demo content.
	Showcase bool
	Now      func() time.Time
}

type Options struct {
	TTL         time.Duration
	MaxSessions int
}

// Registry maps session ids to households. Idle households expire after
// the TTL; the least recently used one is torn down when the registry is
// full.
type Registry struct {
	deps     Deps
	sessions *cache.LRUCache[*Household]
}

func NewRegistry(opts Options, deps Deps) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	r := &Registry{deps: deps}
	r.sessions = cache.NewLRUCache(opts.MaxSessions, opts.TTL,
		cache.WithSlidingTTL[*Household](),
		cache.WithClock[*Household](deps.Now),
		cache.WithEvictHook(r.teardown),
	)
	return r
}

func (r *Registry) teardown(id string, h *Household) {
	h.Close()
	r.deps.Metrics.SessionClosed()
	slog.Info("Household torn down", "household", id)
}

// Get returns the live household for id.
func (r *Registry) Get(id string) (*Household, bool) {
	if id == "" {
		return nil, false
	}
	return r.sessions.Get(id)
}

// Open returns the household for id, creating a new one under a fresh id
// when id is unknown or expired. created reports the latter.
func (r *Registry) Open(id string) (h *Household, created bool) {
	if h, ok := r.Get(id); ok {
		return h, false
	}
	return r.Create(), true
}

// Create starts a new household.
func (r *Registry) Create() *Household {
	id := uuid.NewString()
	h := NewHousehold(id, r.seed(), r.deps)
	r.sessions.Set(id, h)
	r.deps.Metrics.SessionOpened()
	slog.Info("Household created", "household", id)
	return h
}

func (r *Registry) seed() core.Snapshot {
	users := r.deps.Roster
	if len(users) == 0 {
		users = memory.DefaultUsers()
	}
	if r.deps.Showcase {
		return memory.Showcase(users, r.deps.Now())
	}
	return core.Snapshot{
		Users:  users,
		Ledger: core.LedgerPlacement{Position: core.Position{X: 650, Y: 50}, ZIndex: core.DefaultBaseOrder},
	}
}

// Close tears down a household immediately.
func (r *Registry) Close(id string) {
	r.sessions.Delete(id)
}

func (r *Registry) Len() int {
	return r.sessions.Size()
}

// Cleaner exposes the session cache to the cache janitor.
func (r *Registry) Cleaner() cache.Cleaner {
	return r.sessions
}
