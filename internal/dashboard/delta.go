package dashboard

import (
	"math"
	"math/big"
	"strconv"
)

// Badge styles.
const (
	StyleGood    = "good"
	StyleBad     = "bad"
	StyleNeutral = "neutral"
)

const (
	ColorGood    = "#17b26a"
	ColorBad     = "#f04438"
	ColorNeutral = "#516778"
)

// Badge is a month-over-month change rendered for display.
type Badge struct {
	Text  string `json:"text"`
	Style string `json:"style"`
	Color string `json:"color"`
}

// PctChange returns the percent change from prev to curr. ok is false when
// prev is not finite or too close to zero to divide by.
func PctChange(curr, prev float64) (delta float64, ok bool) {
	if math.IsNaN(prev) || math.IsInf(prev, 0) || math.Abs(prev) < 1e-9 {
		return 0, false
	}
	return (curr - prev) / math.Abs(prev) * 100, true
}

// FormatDelta renders a change. With invert set, an increase is bad, which
// is how expenses are read.
func FormatDelta(delta float64, ok, invert bool) Badge {
	if !ok {
		return Badge{Text: "—", Style: StyleNeutral, Color: ColorNeutral}
	}

	up := delta > 0
	arrow := "→"
	switch {
	case up:
		arrow = "↑"
	case delta < 0:
		arrow = "↓"
	}

	good, bad := up, !up
	if invert {
		good, bad = !up, up
	}

	b := Badge{
		Text:  arrow + " " + fixed1(math.Abs(delta)) + "%",
		Style: StyleNeutral,
		Color: ColorNeutral,
	}
	if good && delta != 0 {
		b.Style, b.Color = StyleGood, ColorGood
	}
	if bad && delta != 0 {
		b.Style, b.Color = StyleBad, ColorBad
	}
	return b
}

// Compare is PctChange followed by FormatDelta.
func Compare(curr, prev float64, invert bool) Badge {
	d, ok := PctChange(curr, prev)
	return FormatDelta(d, ok, invert)
}

// fixed1 formats v >= 0 with one decimal. Values exactly halfway between two
// tenths round up; strconv would round them to even.
func fixed1(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	scaled := new(big.Float).SetPrec(256).SetFloat64(v)
	scaled.Mul(scaled, big.NewFloat(10))
	whole, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(scaled, new(big.Float).SetInt(whole))
	if frac.Cmp(big.NewFloat(0.5)) != 0 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	whole.Add(whole, big.NewInt(1))
	q, r := new(big.Int).QuoRem(whole, big.NewInt(10), new(big.Int))
	return q.String() + "." + r.String()
}
