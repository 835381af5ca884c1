package core

import "fmt"

const (
	KindLedger       ItemKind = "ledger"
	KindPoll         ItemKind = "poll"
	KindAnnouncement ItemKind = "announcement"
)

// LedgerID is the fixed identifier of the singleton ledger panel.
const LedgerID = "ledger"

// DefaultBaseOrder is the floor used when seeding the stacking counter.
const DefaultBaseOrder = 10

type (
	// ItemKind names a family of movable corkboard items.
	ItemKind string

	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// ItemRef identifies a board item across kinds.
	ItemRef struct {
		Kind ItemKind `json:"kind"`
		ID   string   `json:"id"`
	}

	LedgerPlacement struct {
		Position Position `json:"position"`
		ZIndex   int      `json:"zIndex"`
	}

	// Placement is the committed spatial state of one board item.
	Placement struct {
		Ref      ItemRef  `json:"ref"`
		Position Position `json:"position"`
		ZIndex   int      `json:"zIndex"`
	}
)

// Default positions for items that were created without one.
var (
	DefaultPollPosition = Position{X: 100, Y: 100}
	DefaultNotePosition = Position{X: 300, Y: 100}
)

func (k ItemKind) IsValid() bool {
	return k == KindLedger || k == KindPoll || k == KindAnnouncement
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// Ledger is the reference of the ledger panel.
func Ledger() ItemRef {
	return ItemRef{Kind: KindLedger, ID: LedgerID}
}

func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p *Position) clone() *Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// PositionOr returns the stored position or def when none was recorded.
func PositionOr(p *Position, def Position) Position {
	if p == nil {
		return def
	}
	return *p
}

// IntOr dereferences v or returns def.
func IntOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
