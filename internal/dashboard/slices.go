// Package dashboard derives the overview figures shown on the dashboard from
// a materialized list of transactions. Everything here is pure and never
// fails: malformed amounts count as zero.
package dashboard

import (
	"sort"
	"strings"

	"financy/internal/core"
)

const (
	// maxNamedSlices is the number of categories shown before folding the
	// remainder into "Other".
	maxNamedSlices = 5
	otherLabel     = core.DefaultCategory
)

// Palette is indexed by slice rank.
var Palette = []string{"#9e77ed", "#f04438", "#0ba5ec", "#17b26a", "#4e5ba6", "#f59e0b", "#06b6d4"}

// Slice is one entry of the expenses-by-category breakdown.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Pct   float64 `json:"pct"`
	Color string  `json:"color"`
}

// ColorForRank returns the palette color for the i-th slice.
func ColorForRank(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

type categoryTotal struct {
	label string
	value float64
}

// BuildCategorySlices groups expense transactions by category and returns at
// most six slices ordered by descending magnitude. Categories beyond the top
// five are summed into a trailing "Other" slice. Ties keep the order in which
// categories first appear in txs.
func BuildCategorySlices(txs []core.Transaction) []Slice {
	index := make(map[string]int)
	var totals []categoryTotal
	for _, t := range txs {
		v := core.ParseAmount(t.Amount)
		if v >= 0 {
			continue
		}
		key := strings.TrimSpace(t.Category)
		if key == "" {
			key = otherLabel
		}
		i, ok := index[key]
		if !ok {
			i = len(totals)
			index[key] = i
			totals = append(totals, categoryTotal{label: key})
		}
		totals[i].value += -v
	}

	var total float64
	for _, c := range totals {
		total += c.value
	}
	if total == 0 {
		return []Slice{}
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].value > totals[j].value
	})

	entries := totals
	if len(totals) > maxNamedSlices {
		var rest float64
		for _, c := range totals[maxNamedSlices:] {
			rest += c.value
		}
		entries = append([]categoryTotal{}, totals[:maxNamedSlices]...)
		if rest > 0 {
			entries = append(entries, categoryTotal{label: otherLabel, value: rest})
		}
	}

	out := make([]Slice, len(entries))
	for i, c := range entries {
		out[i] = Slice{
			Label: c.label,
			Value: c.value,
			Pct:   c.value / total,
			Color: ColorForRank(i),
		}
	}
	return out
}
