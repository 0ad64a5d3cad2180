package exporter

import (
	"math"
	"strconv"
	"strings"

	"marketpulse/pkg/contracts/domain"
)

// All aggregate math upstream runs in full float64 precision; these helpers
// are the only place values are rounded, and they round half to even.

// roundEven rounds to the given number of decimal places, ties to even.
func roundEven(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.RoundToEven(v*scale) / scale
}

// groupDigits inserts comma separators into the integer part of a plain
// decimal string.
func groupDigits(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + fracPart
}

// FormatCount renders a count with digit grouping: 1234567 → "1,234,567".
func FormatCount(v float64) string {
	return groupDigits(strconv.FormatFloat(roundEven(v, 0), 'f', 0, 64))
}

// FormatCurrency renders a dollar amount: 483.333 → "$483.33".
func FormatCurrency(v float64) string {
	return "$" + groupDigits(strconv.FormatFloat(roundEven(v, 2), 'f', 2, 64))
}

// FormatPercent renders a percentage with one decimal: 83.333 → "83.3%".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(roundEven(v, 1), 'f', 1, 64) + "%"
}

// FormatRatio renders a dimensionless ratio with two decimals.
func FormatRatio(v float64) string {
	return strconv.FormatFloat(roundEven(v, 2), 'f', 2, 64)
}

// FormatValue renders a value according to its unit tag.
func FormatValue(v float64, unit domain.Unit) string {
	switch unit {
	case domain.UnitUSD:
		return FormatCurrency(v)
	case domain.UnitPercent:
		return FormatPercent(v)
	case domain.UnitRatio:
		return FormatRatio(v)
	case domain.UnitPlans:
		return FormatRatio(v)
	default:
		return FormatCount(v)
	}
}

// formatFloat formats a float64 value for CSV output with full precision.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
