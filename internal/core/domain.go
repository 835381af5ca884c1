package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
)

const (
	ChoreOnce    ChoreFrequency = "Once"
	ChoreDaily   ChoreFrequency = "Daily"
	ChoreWeekly  ChoreFrequency = "Weekly"
	ChoreMonthly ChoreFrequency = "Monthly"
)

const (
	CategoryFood          Category = "Food"
	CategoryUtilities     Category = "Utilities"
	CategoryRent          Category = "Rent"
	CategorySupplies      Category = "Supplies"
	CategoryEntertainment Category = "Entertainment"
	CategoryOther         Category = "Other"
)

const (
	AnnouncementGeneral     AnnouncementType = "General"
	AnnouncementUrgent      AnnouncementType = "Urgent"
	AnnouncementParty       AnnouncementType = "Party"
	AnnouncementMaintenance AnnouncementType = "Maintenance"
)

const (
	EventHousehold   EventType = "Household"
	EventPersonal    EventType = "Personal"
	EventMaintenance EventType = "Maintenance"
)

const (
	VoteYes Vote = "yes"
	VoteNo  Vote = "no"

	PollOpen   PollStatus = "open"
	PollClosed PollStatus = "closed"
)

type (
	// Frequency drives recurring expense generation.
	Frequency string

	// ChoreFrequency is informational only; chores never regenerate.
	ChoreFrequency string

	Category         string
	AnnouncementType string
	EventType        string
	Vote             string
	PollStatus       string

	User struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
		Color  string `json:"color"`
	}

	Expense struct {
		ID          string          `json:"id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		PaidBy      string          `json:"paidBy"`
		Date        time.Time       `json:"date"`
		Category    Category        `json:"category"`
		SplitAmong  []string        `json:"splitAmong"`
	}

	// ExpenseTemplate carries the fields shared by a recurring definition
	// and every instance it generates.
	ExpenseTemplate struct {
		Description string
		Amount      decimal.Decimal
		PaidBy      string
		Category    Category
		SplitAmong  []string
	}

	RecurringExpense struct {
		ID          string          `json:"id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		PaidBy      string          `json:"paidBy"`
		Category    Category        `json:"category"`
		SplitAmong  []string        `json:"splitAmong"`
		Frequency   Frequency       `json:"frequency"`
		StartDate   time.Time       `json:"startDate"`
	}

	Chore struct {
		ID         string         `json:"id"`
		Title      string         `json:"title"`
		AssignedTo string         `json:"assignedTo"`
		DueDate    time.Time      `json:"dueDate"`
		Completed  bool           `json:"completed"`
		Frequency  ChoreFrequency `json:"frequency"`
	}

	ShoppingItem struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		AddedBy   string `json:"addedBy"`
		Completed bool   `json:"completed"`
		Category  string `json:"category"`
	}

	Announcement struct {
		ID       string           `json:"id"`
		AuthorID string           `json:"authorId"`
		Title    string           `json:"title"`
		Content  string           `json:"content"`
		Date     time.Time        `json:"date"`
		Type     AnnouncementType `json:"type"`
		Position *Position        `json:"position,omitempty"`
		ZIndex   *int             `json:"zIndex,omitempty"`
	}

	CalendarEvent struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Date        time.Time `json:"date"`
		Time        string    `json:"time"` // "HH:MM"
		Type        EventType `json:"type"`
		CreatedBy   string    `json:"createdBy"`
		Description string    `json:"description,omitempty"`
		Reminder    bool      `json:"reminder"`
	}

	Poll struct {
		ID        string          `json:"id"`
		Question  string          `json:"question"`
		CreatedBy string          `json:"createdBy"`
		CreatedAt time.Time       `json:"createdAt"`
		Votes     map[string]Vote `json:"votes"`
		Status    PollStatus      `json:"status"`
		Position  *Position       `json:"position,omitempty"`
		ZIndex    *int            `json:"zIndex,omitempty"`
	}
)

// ErrValidationSkip marks a creation request with missing required input.
// Callers drop the request silently and keep the user's form contents.
var ErrValidationSkip = errors.New("validation skip")

var (
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrValidationSkip)
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrValidationSkip)
	ErrEmptyTitle       = fmt.Errorf("%w: empty title", ErrValidationSkip)
	ErrEmptyQuestion    = fmt.Errorf("%w: empty question", ErrValidationSkip)
	ErrEmptyName        = fmt.Errorf("%w: empty name", ErrValidationSkip)
	ErrInvalidFrequency = fmt.Errorf("%w: invalid frequency", ErrValidationSkip)
	ErrInvalidVote      = fmt.Errorf("%w: invalid vote", ErrValidationSkip)
)

var expenseCategories = []Category{
	CategoryFood, CategoryUtilities, CategoryRent,
	CategorySupplies, CategoryEntertainment, CategoryOther,
}

// Categories returns the expense categories in display order.
func Categories() []Category {
	return append([]Category(nil), expenseCategories...)
}

func (c Category) IsValid() bool {
	for _, v := range expenseCategories {
		if c == v {
			return true
		}
	}
	return false
}

func (f Frequency) IsValid() bool {
	return f == Weekly || f == Monthly
}

func (f ChoreFrequency) IsValid() bool {
	switch f {
	case ChoreOnce, ChoreDaily, ChoreWeekly, ChoreMonthly:
		return true
	}
	return false
}

func (t AnnouncementType) IsValid() bool {
	switch t {
	case AnnouncementGeneral, AnnouncementUrgent, AnnouncementParty, AnnouncementMaintenance:
		return true
	}
	return false
}

func (t EventType) IsValid() bool {
	switch t {
	case EventHousehold, EventPersonal, EventMaintenance:
		return true
	}
	return false
}

func (v Vote) IsValid() bool {
	return v == VoteYes || v == VoteNo
}

func (t ExpenseTemplate) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (c Chore) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

func (i ShoppingItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (a Announcement) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

func (e CalendarEvent) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

func (p Poll) Validate() error {
	if strings.TrimSpace(p.Question) == "" {
		return ErrEmptyQuestion
	}
	return nil
}

// Template extracts the shared fields of a recurring definition.
func (r RecurringExpense) Template() ExpenseTemplate {
	return ExpenseTemplate{
		Description: r.Description,
		Amount:      r.Amount,
		PaidBy:      r.PaidBy,
		Category:    r.Category,
		SplitAmong:  append([]string(nil), r.SplitAmong...),
	}
}

// Clone returns a copy that shares no maps or slices with p.
func (p Poll) Clone() Poll {
	votes := make(map[string]Vote, len(p.Votes))
	for k, v := range p.Votes {
		votes[k] = v
	}
	p.Votes = votes
	p.Position = p.Position.clone()
	p.ZIndex = cloneInt(p.ZIndex)
	return p
}

func (a Announcement) Clone() Announcement {
	a.Position = a.Position.clone()
	a.ZIndex = cloneInt(a.ZIndex)
	return a
}

func (e Expense) Clone() Expense {
	e.SplitAmong = append([]string(nil), e.SplitAmong...)
	return e
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
