package recurrence

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"casa/internal/core"
)

func template() core.ExpenseTemplate {
	return core.ExpenseTemplate{
		Description: "Internet",
		Amount:      decimal.NewFromInt(100),
		PaidBy:      "u1",
		Category:    core.CategoryUtilities,
		SplitAmong:  []string{"u1", "u2", "u3"},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestExpandWeekly(t *testing.T) {
	start := day(2024, 2, 26)
	def, got := Expand(template(), core.Weekly, start)

	if len(got) != BatchSize {
		t.Fatalf("expected %d instances, got %d", BatchSize, len(got))
	}
	if !got[0].Date.Equal(start) {
		t.Fatalf("instance 0 date = %v, want %v", got[0].Date, start)
	}
	for i := 1; i < len(got); i++ {
		if diff := got[i].Date.Sub(got[i-1].Date); diff != 7*24*time.Hour {
			t.Fatalf("instance %d is %v after previous, want 7 days", i, diff)
		}
	}
	if def.Frequency != core.Weekly || !def.StartDate.Equal(start) {
		t.Fatalf("unexpected definition: %+v", def)
	}
}

func TestExpandMonthlyOverflow(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  []time.Time
	}{
		{
			name:  "leap year january 31",
			start: day(2024, 1, 31),
			want:  []time.Time{day(2024, 1, 31), day(2024, 3, 2), day(2024, 4, 2), day(2024, 5, 2), day(2024, 6, 2)},
		},
		{
			name:  "common year january 31",
			start: day(2023, 1, 31),
			want:  []time.Time{day(2023, 1, 31), day(2023, 3, 3), day(2023, 4, 3), day(2023, 5, 3), day(2023, 6, 3)},
		},
		{
			name:  "year carry",
			start: day(2024, 11, 15),
			want:  []time.Time{day(2024, 11, 15), day(2024, 12, 15), day(2025, 1, 15), day(2025, 2, 15), day(2025, 3, 15)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := Expand(template(), core.Monthly, tt.start)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d instances, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if !got[i].Date.Equal(tt.want[i]) {
					t.Errorf("instance %d date = %s, want %s", i, got[i].Date.Format("2006-01-02"), tt.want[i].Format("2006-01-02"))
				}
			}
		})
	}
}

func TestExpandCopiesTemplate(t *testing.T) {
	tmpl := template()
	def, got := Expand(tmpl, core.Monthly, day(2024, 1, 31))

	seen := map[string]bool{def.ID: true}
	for i, e := range got {
		if !e.Amount.Equal(decimal.NewFromInt(100)) {
			t.Errorf("instance %d amount = %s", i, e.Amount)
		}
		if strings.Join(e.SplitAmong, ",") != "u1,u2,u3" {
			t.Errorf("instance %d participants = %v", i, e.SplitAmong)
		}
		if e.Description != tmpl.Description || e.PaidBy != tmpl.PaidBy || e.Category != tmpl.Category {
			t.Errorf("instance %d template fields differ: %+v", i, e)
		}
		if seen[e.ID] {
			t.Fatalf("duplicate id %q", e.ID)
		}
		seen[e.ID] = true
	}

	if !strings.HasPrefix(def.ID, definitionPrefix) {
		t.Fatalf("definition id %q lacks prefix", def.ID)
	}
	for _, e := range got {
		if !strings.HasPrefix(e.ID, instancePrefix) {
			t.Fatalf("instance id %q lacks prefix", e.ID)
		}
	}

	tmpl.SplitAmong[0] = "u9"
	got[0].SplitAmong[1] = "u8"
	if def.SplitAmong[0] != "u1" || got[1].SplitAmong[1] != "u2" {
		t.Fatalf("participant slices are aliased")
	}
}

func TestExpandUnknownFrequencyStepsMonthly(t *testing.T) {
	_, got := Expand(template(), core.Frequency("Fortnightly"), day(2024, 3, 10))
	if !got[1].Date.Equal(day(2024, 4, 10)) {
		t.Fatalf("expected monthly stepping, got %v", got[1].Date)
	}
}

type dailyStepper struct{}

func (dailyStepper) Next(prev time.Time) time.Time { return prev.AddDate(0, 0, 1) }

func TestExpandUsesGivenStepper(t *testing.T) {
	def, got := expand(template(), core.Frequency("Daily"), day(2024, 2, 27), dailyStepper{})
	if def.Frequency != core.Frequency("Daily") {
		t.Fatalf("Frequency = %q", def.Frequency)
	}
	want := []time.Time{day(2024, 2, 27), day(2024, 2, 28), day(2024, 2, 29), day(2024, 3, 1), day(2024, 3, 2)}
	for i, w := range want {
		if !got[i].Date.Equal(w) {
			t.Fatalf("instance %d: got %v, want %v", i, got[i].Date, w)
		}
	}
}

func TestGetStepper(t *testing.T) {
	tests := []struct {
		freq    core.Frequency
		want    Stepper
		wantErr bool
	}{
		{core.Weekly, WeeklyStepper{}, false},
		{core.Monthly, MonthlyStepper{}, false},
		{core.Frequency("Yearly"), nil, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			s, err := GetStepper(tt.freq)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for unregistered frequency")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetStepper: %v", err)
			}
			if s != tt.want {
				t.Fatalf("GetStepper(%s) = %T", tt.freq, s)
			}
		})
	}
}
