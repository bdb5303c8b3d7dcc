package valuation

import "github.com/shopspring/decimal"

// Tuning constants for the valuation formula. Adjust here, not in the engine.
var (
	// Base EBITDA multipliers used when the client does not override them.
	BaseMultiplierLow  = decimal.RequireFromString("3.0")
	BaseMultiplierHigh = decimal.RequireFromString("5.0")

	// Multiplier adjustments and bounds. Reserved for sector-aware pricing;
	// the current formula does not apply them.
	PropertyOwnedAdjustment       = decimal.RequireFromString("0.2")
	ShareholdersWorkingAdjustment = decimal.RequireFromString("0.1")
	MinMultiplier                 = decimal.RequireFromString("2.5")
	MaxMultiplierLow              = decimal.RequireFromString("6.0")
	MaxMultiplierHigh             = decimal.RequireFromString("7.0")

	// MinValuation is a presentation floor, not part of the formula. Apply it
	// with ApplyFloor if product ever asks for it.
	MinValuation = decimal.RequireFromString("50000")

	// Valuations are rounded to the nearest thousand for presentation.
	RoundingIncrement = decimal.RequireFromString("1000")
)

type MultiplierPair struct {
	Low  decimal.Decimal
	High decimal.Decimal
}

// SectorMultipliers overrides the base pair per sector label. Empty until the
// sector classification list is agreed with the brokerage side.
var SectorMultipliers = map[string]MultiplierPair{}

// ApplyFloor clamps a valuation bound to the configured minimum. It is a pure
// post-processing step and is not wired into Calculate.
func ApplyFloor(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(MinValuation) {
		return MinValuation
	}
	return v
}
