// Package utils provides common formatting and time helpers for the
// swap simulator.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatUSD formats an amount as US dollars with thousands separators
// ($12,345.67). Negative amounts render as -$12,345.67.
func FormatUSD(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	intPart := int64(amount)
	cents := int64(math.Round((amount - float64(intPart)) * 100))
	if cents >= 100 {
		// rounding carried into the next dollar
		intPart++
		cents -= 100
	}

	formatted := fmt.Sprintf("%s.%02d", groupThousands(intPart), cents)
	if negative {
		return "-$" + formatted
	}
	return "$" + formatted
}

// groupThousands inserts commas every three digits.
func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatRate renders an annual rate fraction as a percentage with two
// decimals, e.g., 0.0325 → "3.25%".
func FormatRate(fraction float64) string {
	if math.IsInf(fraction, 1) {
		return "∞"
	}
	if math.IsNaN(fraction) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", fraction*100)
}

// FormatBps renders a rate fraction in basis points, e.g., 0.0005 → "5.0 bps".
func FormatBps(fraction float64) string {
	return fmt.Sprintf("%.1f bps", fraction*10000)
}

// FormatLTV renders a loan-to-value fraction, using the infinity symbol
// for the zero-collateral sentinel.
func FormatLTV(ltv float64) string {
	if math.IsInf(ltv, 1) {
		return "∞ (no collateral)"
	}
	return fmt.Sprintf("%.2f%%", ltv*100)
}
