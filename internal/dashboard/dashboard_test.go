package dashboard

import (
	"math"
	"testing"
	"time"

	"financy/internal/core"
)

func tx(date core.Date, amount, category string) core.Transaction {
	return core.Transaction{
		Description: "t",
		Method:      "Cash",
		Date:        date,
		Amount:      amount,
		Positive:    !core.IsNegativeAmount(amount),
		Category:    category,
	}
}

func TestBuildCategorySlicesBasic(t *testing.T) {
	d := core.NewDate(2025, 10, 5)
	slices := BuildCategorySlices([]core.Transaction{
		tx(d, "-$50", "Groceries"),
		tx(d, "-$30", "Dining"),
		tx(d, "+$100", "Income"),
		tx(d, "-$20", "Groceries"),
	})

	want := []Slice{
		{Label: "Groceries", Value: 70, Pct: 0.7, Color: "#9e77ed"},
		{Label: "Dining", Value: 30, Pct: 0.3, Color: "#f04438"},
	}
	if len(slices) != len(want) {
		t.Fatalf("expected %d slices, got %+v", len(want), slices)
	}
	for i := range want {
		got := slices[i]
		if got.Label != want[i].Label || got.Color != want[i].Color ||
			math.Abs(got.Value-want[i].Value) > 1e-9 || math.Abs(got.Pct-want[i].Pct) > 1e-9 {
			t.Fatalf("slice %d expected %+v, got %+v", i, want[i], got)
		}
	}
}

func TestBuildCategorySlicesFoldsRemainder(t *testing.T) {
	d := core.NewDate(2025, 10, 5)
	var txs []core.Transaction
	for _, c := range []struct {
		cat    string
		amount string
	}{
		{"A", "-$9"}, {"B", "-$8"}, {"C", "-$7"}, {"D", "-$6"},
		{"E", "-$5"}, {"F", "-$4"}, {"G", "-$3"},
	} {
		txs = append(txs, tx(d, c.amount, c.cat))
	}

	slices := BuildCategorySlices(txs)
	if len(slices) != 6 {
		t.Fatalf("expected 6 slices, got %d", len(slices))
	}
	labels := []string{"A", "B", "C", "D", "E", "Other"}
	for i, l := range labels {
		if slices[i].Label != l {
			t.Fatalf("slice %d expected %s, got %s", i, l, slices[i].Label)
		}
		if slices[i].Color != Palette[i] {
			t.Fatalf("slice %d expected color %s, got %s", i, Palette[i], slices[i].Color)
		}
	}
	if slices[5].Value != 7 {
		t.Fatalf("expected Other=7, got %v", slices[5].Value)
	}
	if math.Abs(slices[5].Pct-7.0/42.0) > 1e-9 {
		t.Fatalf("unexpected Other pct %v", slices[5].Pct)
	}

	var sum float64
	for _, s := range slices {
		sum += s.Pct
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("pct should sum to 1, got %v", sum)
	}
}

func TestBuildCategorySlicesEmptyAndDefaults(t *testing.T) {
	d := core.NewDate(2025, 10, 5)
	if got := BuildCategorySlices(nil); len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
	if got := BuildCategorySlices([]core.Transaction{tx(d, "+$10", "Income"), tx(d, "garbage", "Dining")}); len(got) != 0 {
		t.Fatalf("expected empty without expenses, got %+v", got)
	}

	got := BuildCategorySlices([]core.Transaction{tx(d, "-$10", "   "), tx(d, "-$5", " Dining ")})
	if len(got) != 2 || got[0].Label != "Other" || got[1].Label != "Dining" {
		t.Fatalf("unexpected slices %+v", got)
	}
}

func TestBuildCategorySlicesTiesKeepFirstSeenOrder(t *testing.T) {
	d := core.NewDate(2025, 10, 5)
	got := BuildCategorySlices([]core.Transaction{
		tx(d, "-$10", "Zeta"),
		tx(d, "-$10", "Alpha"),
		tx(d, "-$10", "Mid"),
	})
	for i, l := range []string{"Zeta", "Alpha", "Mid"} {
		if got[i].Label != l {
			t.Fatalf("slice %d expected %s, got %s", i, l, got[i].Label)
		}
	}
}

func TestColorForRankCycles(t *testing.T) {
	if ColorForRank(0) != "#9e77ed" || ColorForRank(7) != "#9e77ed" || ColorForRank(8) != "#f04438" {
		t.Fatalf("palette does not cycle")
	}
}

func TestSumTotalsInRange(t *testing.T) {
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.NewDate(2025, 10, 1), "+$1,000.00", "Income"),
		tx(core.NewDate(2025, 10, 15), "-$250.50", "Housing"),
		tx(core.NewDate(2025, 10, 31), "-$49.50", "Dining"),
		tx(core.NewDate(2025, 11, 1), "-$999", "Dining"),
		tx(core.NewDate(2025, 9, 30), "+$999", "Income"),
		tx(core.NewDate(2025, 10, 20), "n/a", "Other"),
	}

	got := SumTotalsInRange(txs, start, end)
	if got.Income != 1000 || math.Abs(got.Expenses-300) > 1e-9 || math.Abs(got.Balance-700) > 1e-9 {
		t.Fatalf("unexpected totals %+v", got)
	}
	if got.Balance != got.Income-got.Expenses {
		t.Fatalf("balance must equal income minus expenses")
	}

	if empty := SumTotalsInRange(txs, end, end); empty != (PeriodTotals{}) {
		t.Fatalf("expected zero totals for empty window, got %+v", empty)
	}
}

func TestMonthWindows(t *testing.T) {
	cases := []struct {
		now       time.Time
		curStart  string
		curEnd    string
		prevStart string
	}{
		{time.Date(2025, 10, 14, 12, 0, 0, 0, time.UTC), "2025-10-01", "2025-11-01", "2025-09-01"},
		{time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC), "2025-01-01", "2025-02-01", "2024-12-01"},
		{time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), "2024-12-01", "2025-01-01", "2024-11-01"},
	}
	for _, tc := range cases {
		cur, prev := MonthWindows(tc.now)
		if s := cur.Start.Format("2006-01-02"); s != tc.curStart {
			t.Fatalf("%v current start expected %s, got %s", tc.now, tc.curStart, s)
		}
		if s := cur.End.Format("2006-01-02"); s != tc.curEnd {
			t.Fatalf("%v current end expected %s, got %s", tc.now, tc.curEnd, s)
		}
		if s := prev.Start.Format("2006-01-02"); s != tc.prevStart {
			t.Fatalf("%v previous start expected %s, got %s", tc.now, tc.prevStart, s)
		}
		if !prev.End.Equal(cur.Start) {
			t.Fatalf("previous window must end where the current starts")
		}
	}
}

func TestPctChange(t *testing.T) {
	if d, ok := PctChange(150, 100); !ok || d != 50 {
		t.Fatalf("expected 50, got %v %v", d, ok)
	}
	if d, ok := PctChange(-50, -100); !ok || d != 50 {
		t.Fatalf("expected 50 for negative base, got %v %v", d, ok)
	}
	for _, prev := range []float64{0, 1e-10, math.NaN(), math.Inf(1)} {
		if _, ok := PctChange(10, prev); ok {
			t.Fatalf("expected undefined change for prev=%v", prev)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	cases := []struct {
		name   string
		delta  float64
		ok     bool
		invert bool
		want   Badge
	}{
		{"undefined", 0, false, false, Badge{"—", StyleNeutral, ColorNeutral}},
		{"up good", 50, true, false, Badge{"↑ 50.0%", StyleGood, ColorGood}},
		{"up inverted", 50, true, true, Badge{"↑ 50.0%", StyleBad, ColorBad}},
		{"down", -12.34, true, false, Badge{"↓ 12.3%", StyleBad, ColorBad}},
		{"down inverted", -12.34, true, true, Badge{"↓ 12.3%", StyleGood, ColorGood}},
		{"flat", 0, true, false, Badge{"→ 0.0%", StyleNeutral, ColorNeutral}},
		{"flat inverted", 0, true, true, Badge{"→ 0.0%", StyleNeutral, ColorNeutral}},
		{"tie rounds up", 12.25, true, false, Badge{"↑ 12.3%", StyleGood, ColorGood}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatDelta(tc.delta, tc.ok, tc.invert); got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestBuildSummary(t *testing.T) {
	now := time.Date(2025, 10, 14, 9, 0, 0, 0, time.UTC)
	var txs []core.Transaction
	for i := 0; i < 9; i++ {
		txs = append(txs, tx(core.NewDate(2025, 10, 10-i), "-$10", "Dining"))
	}
	txs = append(txs,
		tx(core.NewDate(2025, 9, 12), "-$45", "Dining"),
		tx(core.NewDate(2025, 9, 1), "+$100", "Income"),
	)

	s := Build(txs, now)
	if s.MonthLabel != "October 2025" {
		t.Fatalf("unexpected label %q", s.MonthLabel)
	}
	if s.Current.Expenses != 90 || s.Current.Income != 0 {
		t.Fatalf("unexpected current totals %+v", s.Current)
	}
	if s.Previous.Expenses != 45 || s.Previous.Income != 100 {
		t.Fatalf("unexpected previous totals %+v", s.Previous)
	}
	if s.Badges.Expenses.Text != "↑ 100.0%" || s.Badges.Expenses.Style != StyleBad {
		t.Fatalf("unexpected expenses badge %+v", s.Badges.Expenses)
	}
	if s.Badges.Income.Text != "↓ 100.0%" || s.Badges.Income.Style != StyleBad {
		t.Fatalf("unexpected income badge %+v", s.Badges.Income)
	}
	if len(s.Recent) != RecentLimit {
		t.Fatalf("expected %d recent, got %d", RecentLimit, len(s.Recent))
	}
	if len(s.Slices) != 1 || s.Slices[0].Value != 135 {
		t.Fatalf("slices should cover all transactions, got %+v", s.Slices)
	}
}

func TestPctLabel(t *testing.T) {
	if got := PctLabel(0.7); got != "70.0%" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := PctLabel(1.0 / 3.0); got != "33.3%" {
		t.Fatalf("unexpected label %q", got)
	}
}
