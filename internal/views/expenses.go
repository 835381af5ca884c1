// Package views computes the derived data shown by the dashboard, the
// ledger, the chore and shopping lists, the calendar and the corkboard.
//
// Every function is pure: inputs are never modified and results never alias
// input slices, so repeated calls over the same snapshot agree.
package views

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"casa/internal/core"
)

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"

	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

type (
	SortField     string
	SortDirection string

	// ExpenseFilter narrows the ledger. Zero-valued fields impose no
	// constraint; the rest are combined with AND.
	ExpenseFilter struct {
		Category core.Category
		PayerID  string
		DateFrom time.Time
		DateTo   time.Time // inclusive through the end of that day
	}

	// SortState is the ledger's current ordering.
	SortState struct {
		Field     SortField     `json:"field"`
		Direction SortDirection `json:"direction"`
	}

	// LedgerRow is an expense with its display-only split figures.
	LedgerRow struct {
		core.Expense
		PayerName string          `json:"payerName"`
		Share     decimal.Decimal `json:"share"`
	}
)

// TotalAmount sums every amount; empty input yields zero.
func TotalAmount(expenses []core.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// AmountByCategory groups amounts by category. Categories without expenses
// are absent from the result.
func AmountByCategory(expenses []core.Expense) map[core.Category]decimal.Decimal {
	out := make(map[core.Category]decimal.Decimal)
	for _, e := range expenses {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}

// CategoryBreakdown lists AmountByCategory in the fixed category order,
// with unknown categories appended by name.
func CategoryBreakdown(expenses []core.Expense) []core.CategoryAmount {
	byCat := AmountByCategory(expenses)
	out := make([]core.CategoryAmount, 0, len(byCat))
	for _, c := range core.Categories() {
		if amt, ok := byCat[c]; ok {
			out = append(out, core.CategoryAmount{Category: c, Amount: amt})
			delete(byCat, c)
		}
	}
	rest := make([]core.Category, 0, len(byCat))
	for c := range byCat {
		rest = append(rest, c)
	}
	slices.Sort(rest)
	for _, c := range rest {
		out = append(out, core.CategoryAmount{Category: c, Amount: byCat[c]})
	}
	return out
}

// FilterExpenses keeps the expenses matching every supplied predicate, in
// input order.
func FilterExpenses(expenses []core.Expense, f ExpenseFilter) []core.Expense {
	var end time.Time
	if !f.DateTo.IsZero() {
		end = EndOfDay(f.DateTo)
	}

	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.PayerID != "" && e.PaidBy != f.PayerID {
			continue
		}
		if !f.DateFrom.IsZero() && e.Date.Before(f.DateFrom) {
			continue
		}
		if !end.IsZero() && e.Date.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// SortExpenses orders a copy of expenses. Ties keep their input order.
func SortExpenses(expenses []core.Expense, field SortField, dir SortDirection) []core.Expense {
	out := slices.Clone(expenses)
	if out == nil {
		out = []core.Expense{}
	}
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		var c int
		switch field {
		case SortByAmount:
			c = a.Amount.Cmp(b.Amount)
		default:
			c = a.Date.Compare(b.Date)
		}
		if dir == Descending {
			return -c
		}
		return c
	})
	return out
}

// DefaultSort is the ledger's initial ordering: newest first.
func DefaultSort() SortState {
	return SortState{Field: SortByDate, Direction: Descending}
}

// Toggle selects field. Selecting the current field flips the direction; a
// new field starts descending.
func (s SortState) Toggle(field SortField) SortState {
	if s.Field == field {
		if s.Direction == Descending {
			return SortState{Field: field, Direction: Ascending}
		}
		return SortState{Field: field, Direction: Descending}
	}
	return SortState{Field: field, Direction: Descending}
}

// ParseSortField maps user input onto a sort field.
func ParseSortField(s string) (SortField, bool) {
	switch SortField(s) {
	case SortByDate, SortByAmount:
		return SortField(s), true
	}
	return "", false
}

// ParseSortDirection maps user input onto a direction.
func ParseSortDirection(s string) (SortDirection, bool) {
	switch SortDirection(s) {
	case Ascending, Descending:
		return SortDirection(s), true
	}
	return "", false
}

// SharePerPerson splits the amount equally across the participants.
func SharePerPerson(e core.Expense) decimal.Decimal {
	n := len(e.SplitAmong)
	if n == 0 {
		return decimal.Zero
	}
	return e.Amount.Div(decimal.NewFromInt(int64(n)))
}

// LedgerRows decorates expenses with payer names and per-person shares.
func LedgerRows(expenses []core.Expense, users []core.User) []LedgerRow {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	out := make([]LedgerRow, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, LedgerRow{
			Expense:   e.Clone(),
			PayerName: names[e.PaidBy],
			Share:     SharePerPerson(e),
		})
	}
	return out
}
