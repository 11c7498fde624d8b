// Package core holds the domain types and the money helpers shared by the
// storage, service and HTTP layers.
package core

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var strictAmount = regexp.MustCompile(`^[+-]?\$?(\d+|\d{1,3}(,\d{3})+)(\.\d+)?$`)

// ParseAmount converts a display string such as "+$1,234.56" into a signed
// number. The sign is negative only when the trimmed input starts with "-".
// Every character other than ASCII digits and "." is dropped before parsing.
// Malformed input yields 0.
//
// Examples:
//
//	ParseAmount("+$1,234.56") -> 1234.56
//	ParseAmount("-$19.90")    -> -19.90
//	ParseAmount("abc")        -> 0
func ParseAmount(s string) float64 {
	d, ok := parseAmountDecimal(s)
	if !ok {
		return 0
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

func parseAmountDecimal(s string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(s)
	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, trimmed)

	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, false
	}
	if strings.HasPrefix(trimmed, "-") {
		d = d.Neg()
	}
	return d, true
}

// ParseAmountStrict accepts only well formed display amounts: an optional
// sign, an optional "$", digits with optional thousands separators and an
// optional fraction.
func ParseAmountStrict(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if !strictAmount.MatchString(trimmed) {
		return decimal.Zero, ErrUnparseableAmount
	}
	d, ok := parseAmountDecimal(trimmed)
	if !ok {
		return decimal.Zero, ErrUnparseableAmount
	}
	return d, nil
}

// IsNegativeAmount reports the sign ParseAmount would apply.
func IsNegativeAmount(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "-")
}

// FormatAmount builds the signed display string used for storage,
// e.g. 750 -> "+$750.00" and -19.9 -> "-$19.90".
func FormatAmount(v float64) (amount string, positive bool) {
	positive = v >= 0
	sign := "-"
	if positive {
		sign = "+"
	}
	return sign + "$" + decimal.NewFromFloat(math.Abs(v)).StringFixed(2), positive
}

// FormatUSD renders v as US dollars with grouping, e.g. "$1,234.56" or "-$12.00".
func FormatUSD(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	rounded := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	f, _ := rounded.Abs().Float64()
	p := message.NewPrinter(language.AmericanEnglish)
	return sign + "$" + p.Sprintf("%.2f", f)
}

func validGoalAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
