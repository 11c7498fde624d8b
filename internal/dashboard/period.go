package dashboard

import (
	"time"

	"financy/internal/core"
)

// PeriodTotals sums a window of transactions.
type PeriodTotals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
}

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// SumTotalsInRange totals the transactions dated in [start, end). Negative
// amounts count as expenses by magnitude, everything else as income.
func SumTotalsInRange(txs []core.Transaction, start, end time.Time) PeriodTotals {
	w := Window{Start: start, End: end}
	var p PeriodTotals
	for _, t := range txs {
		if !w.Contains(t.Date.Time) {
			continue
		}
		v := core.ParseAmount(t.Amount)
		if v < 0 {
			p.Expenses += -v
		} else {
			p.Income += v
		}
	}
	p.Balance = p.Income - p.Expenses
	return p
}

// MonthWindows returns the calendar month containing now and the month before
// it. The calendar month is read in now's location; the bounds are expressed
// at UTC midnight to match how transaction dates are stored.
func MonthWindows(now time.Time) (current, previous Window) {
	y, m, _ := now.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	current = Window{Start: start, End: start.AddDate(0, 1, 0)}
	previous = Window{Start: start.AddDate(0, -1, 0), End: start}
	return current, previous
}
