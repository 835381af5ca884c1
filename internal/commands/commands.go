// Package commands is the single entry point for household mutations.
//
// The presentation layer never touches the entity store directly: it builds
// one of the Command values below and hands it to Dispatcher.Dispatch.
package commands

import (
	"time"

	"casa/internal/core"
)

// Kind tags a command variant.
type Kind string

const (
	KindAddExpense          Kind = "AddExpense"
	KindAddRecurringExpense Kind = "AddRecurringExpense"
	KindAddChore            Kind = "AddChore"
	KindToggleChore         Kind = "ToggleChore"
	KindAddShoppingItem     Kind = "AddShoppingItem"
	KindToggleShoppingItem  Kind = "ToggleShoppingItem"
	KindDeleteShoppingItem  Kind = "DeleteShoppingItem"
	KindAddAnnouncement     Kind = "AddAnnouncement"
	KindAddPoll             Kind = "AddPoll"
	KindVote                Kind = "Vote"
	KindUpdatePosition      Kind = "UpdatePosition"
	KindUpdateOrder         Kind = "UpdateOrder"
	KindAddEvent            Kind = "AddEvent"
)

type Command interface {
	Kind() Kind
}

type (
	// AddExpense records a one-off expense. Amount is the raw user input.
	AddExpense struct {
		Description string
		Amount      string
		PaidBy      string
		Category    core.Category
		SplitAmong  []string
		Date        time.Time
	}

	// AddRecurringExpense stores a definition and its generated batch.
	AddRecurringExpense struct {
		Description string
		Amount      string
		PaidBy      string
		Category    core.Category
		SplitAmong  []string
		Frequency   core.Frequency
		StartDate   time.Time
	}

	AddChore struct {
		Title      string
		AssignedTo string
		DueDate    time.Time
		Frequency  core.ChoreFrequency
	}

	ToggleChore struct {
		ID string
	}

	AddShoppingItem struct {
		Name     string
		AddedBy  string
		Category string
	}

	ToggleShoppingItem struct {
		ID string
	}

	DeleteShoppingItem struct {
		ID string
	}

	AddAnnouncement struct {
		AuthorID string
		Title    string
		Content  string
		Type     core.AnnouncementType
		Position *core.Position
	}

	AddPoll struct {
		Question  string
		CreatedBy string
		Position  *core.Position
	}

	Vote struct {
		PollID string
		UserID string
		Vote   core.Vote
	}

	UpdatePosition struct {
		Ref      core.ItemRef
		Position core.Position
	}

	UpdateOrder struct {
		Ref   core.ItemRef
		Order int
	}

	AddEvent struct {
		Title       string
		Date        time.Time
		Time        string
		Type        core.EventType
		CreatedBy   string
		Description string
		Reminder    bool
	}
)

func (AddExpense) Kind() Kind          { return KindAddExpense }
func (AddRecurringExpense) Kind() Kind { return KindAddRecurringExpense }
func (AddChore) Kind() Kind            { return KindAddChore }
func (ToggleChore) Kind() Kind         { return KindToggleChore }
func (AddShoppingItem) Kind() Kind     { return KindAddShoppingItem }
func (ToggleShoppingItem) Kind() Kind  { return KindToggleShoppingItem }
func (DeleteShoppingItem) Kind() Kind  { return KindDeleteShoppingItem }
func (AddAnnouncement) Kind() Kind     { return KindAddAnnouncement }
func (AddPoll) Kind() Kind             { return KindAddPoll }
func (Vote) Kind() Kind                { return KindVote }
func (UpdatePosition) Kind() Kind      { return KindUpdatePosition }
func (UpdateOrder) Kind() Kind         { return KindUpdateOrder }
func (AddEvent) Kind() Kind            { return KindAddEvent }

// Result describes what a command changed.
type Result struct {
	Kind     Kind   `json:"kind"`
	EntityID string `json:"entityId,omitempty"`
	// Entity is the created or updated entity, when there is one.
	Entity any `json:"entity,omitempty"`
	// Generated lists instance ids produced by a recurring definition.
	Generated []string `json:"generated,omitempty"`
}
