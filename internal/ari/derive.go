// Package ari holds the pure availability-rate-inventory math: derivation of
// child plan amounts, rounding rules, the overbooking clamp and calendar-day
// normalization.  Nothing in this package touches the database; repositories
// and services apply these functions inside their transactions.
package ari

import (
	"fmt"
	"math"
)

// Derivation types for a rate plan that prices off its parent.
const (
	DerivedPercentage  = "PERCENTAGE"
	DerivedFixedAmount = "FIXED_AMOUNT"
)

// Rounding rules applied after derivation.
const (
	RoundNone         = "NONE"
	RoundNearestWhole = "NEAREST_WHOLE"
	RoundEnding99     = "ENDING_99"
	RoundEnding90     = "ENDING_90"
	RoundMultiple5    = "MULTIPLE_5"
	RoundMultiple10   = "MULTIPLE_10"
)

// ChildAmount computes the stored amount for a derived plan given its
// parent's amount.  The raw adjustment is clamped at zero before rounding so
// a large negative fixed adjustment can never produce a negative rate.
func ChildAmount(parent float64, derivedType string, derivedValue float64, rounding string) float64 {
	var raw float64
	switch derivedType {
	case DerivedPercentage:
		raw = parent + parent*(derivedValue/100)
	case DerivedFixedAmount:
		raw = parent + derivedValue
	default:
		raw = parent
	}
	if raw < 0 {
		raw = 0
	}
	return ApplyRounding(raw, rounding)
}

// ApplyRounding applies one of the rounding rules to an amount.  Unknown
// rules behave like NONE.
func ApplyRounding(x float64, rule string) float64 {
	switch rule {
	case RoundNearestWhole:
		return math.Round(x)
	case RoundEnding99:
		return math.Floor(x) + 0.99
	case RoundEnding90:
		return math.Floor(x) + 0.90
	case RoundMultiple5:
		return math.Round(x/5) * 5
	case RoundMultiple10:
		return math.Round(x/10) * 10
	default:
		return x
	}
}

// Formula renders the derivation applied to a child amount as a short
// human-readable string for audit payloads, e.g. "BASE-10%|ENDING_99" or
// "BAR+15.00|NONE".
func Formula(parentCode, derivedType string, derivedValue float64, rounding string) string {
	op := "+"
	v := derivedValue
	if v < 0 {
		op = "-"
		v = -v
	}
	unit := ""
	if derivedType == DerivedPercentage {
		unit = "%"
	}
	return fmt.Sprintf("%s%s%.2f%s|%s", parentCode, op, v, unit, rounding)
}
