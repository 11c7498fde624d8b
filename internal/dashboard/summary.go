package dashboard

import (
	"strconv"
	"time"

	"financy/internal/core"
)

// RecentLimit is the number of transactions listed on the overview.
const RecentLimit = 7

// Summary is everything the overview page renders.
type Summary struct {
	MonthLabel string             `json:"monthLabel"`
	Current    PeriodTotals       `json:"current"`
	Previous   PeriodTotals       `json:"previous"`
	Badges     Badges             `json:"badges"`
	Slices     []Slice            `json:"slices"`
	Recent     []core.Transaction `json:"recent"`
}

type Badges struct {
	Balance  Badge `json:"balance"`
	Income   Badge `json:"income"`
	Expenses Badge `json:"expenses"`
}

// Build assembles the overview from txs, which are expected newest first.
func Build(txs []core.Transaction, now time.Time) Summary {
	cur, prev := MonthWindows(now)
	curr := SumTotalsInRange(txs, cur.Start, cur.End)
	last := SumTotalsInRange(txs, prev.Start, prev.End)

	recent := txs
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	return Summary{
		MonthLabel: MonthLabel(now),
		Current:    curr,
		Previous:   last,
		Badges: Badges{
			Balance:  Compare(curr.Balance, last.Balance, false),
			Income:   Compare(curr.Income, last.Income, false),
			Expenses: Compare(curr.Expenses, last.Expenses, true),
		},
		Slices: BuildCategorySlices(txs),
		Recent: append([]core.Transaction{}, recent...),
	}
}

// MonthLabel renders the month of now as "October 2026".
func MonthLabel(now time.Time) string {
	return now.Month().String() + " " + strconv.Itoa(now.Year())
}

// PctLabel renders a slice share as a percentage with one decimal.
func PctLabel(pct float64) string {
	return fixed1(pct*100) + "%"
}
