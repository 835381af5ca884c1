package recurrence

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"casa/internal/core"
)

// BatchSize is the number of instances generated for every definition.
const BatchSize = 5

const (
	definitionPrefix = "rec-"
	instancePrefix   = "gen-"
)

// Expand builds the write-once definition for tmpl and its BatchSize
// instances. Instance 0 is dated start; each following date is derived from
// the previous one by the frequency's stepper. Unknown frequencies step
// monthly. The template is not validated here.
func Expand(tmpl core.ExpenseTemplate, frequency core.Frequency, start time.Time) (core.RecurringExpense, []core.Expense) {
	stepper, err := GetStepper(frequency)
	if err != nil {
		stepper = MonthlyStepper{}
	}
	return expand(tmpl, frequency, start, stepper)
}

func expand(tmpl core.ExpenseTemplate, frequency core.Frequency, start time.Time, stepper Stepper) (core.RecurringExpense, []core.Expense) {
	batch := uuid.NewString()
	def := core.RecurringExpense{
		ID:          definitionPrefix + batch,
		Description: tmpl.Description,
		Amount:      tmpl.Amount,
		PaidBy:      tmpl.PaidBy,
		Category:    tmpl.Category,
		SplitAmong:  append([]string(nil), tmpl.SplitAmong...),
		Frequency:   frequency,
		StartDate:   start,
	}

	instances := make([]core.Expense, 0, BatchSize)
	current := start
	for i := 0; i < BatchSize; i++ {
		instances = append(instances, core.Expense{
			ID:          fmt.Sprintf("%s%s-%d", instancePrefix, batch, i),
			Description: tmpl.Description,
			Amount:      tmpl.Amount,
			PaidBy:      tmpl.PaidBy,
			Date:        current,
			Category:    tmpl.Category,
			SplitAmong:  append([]string(nil), tmpl.SplitAmong...),
		})
		current = stepper.Next(current)
	}
	return def, instances
}
