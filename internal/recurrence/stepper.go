// Package recurrence expands recurring expense definitions into concrete
// expense instances.
//
// Each frequency has its own stepping strategy that advances an instance
// date to the next one. Strategies are looked up in a fixed, read-only
// registry keyed by frequency.
package recurrence

import (
	"fmt"
	"time"

	"casa/internal/core"
)

// Stepper is the strategy interface for advancing an occurrence date.
type Stepper interface {
	// Next returns the occurrence that follows prev.
	Next(prev time.Time) time.Time
}

// WeeklyStepper adds seven calendar days, keeping the wall clock.
type WeeklyStepper struct{}

func (WeeklyStepper) Next(prev time.Time) time.Time {
	return prev.AddDate(0, 0, 7)
}

// MonthlyStepper advances the month by one and lets day-of-month overflow
// roll into the following month (Jan 31 -> Mar 2 in a leap year).
type MonthlyStepper struct{}

func (MonthlyStepper) Next(prev time.Time) time.Time {
	return prev.AddDate(0, 1, 0)
}

var steppers = map[core.Frequency]Stepper{
	core.Weekly:  WeeklyStepper{},
	core.Monthly: MonthlyStepper{},
}

// GetStepper returns the stepping strategy registered for a frequency.
func GetStepper(frequency core.Frequency) (Stepper, error) {
	s, ok := steppers[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return s, nil
}
