// Package valuation derives an estimated sale price range from a business's
// disclosed financials. The base figure is SDE (Seller's Discretionary
// Earnings): reported profit with non-operational and discretionary costs
// added back.
package valuation

import "github.com/shopspring/decimal"

// Inputs carries the financial facts of a fully validated lead. Pointer
// fields are optional addbacks; nil means not disclosed.
type Inputs struct {
	Profit               decimal.Decimal
	Depreciation         decimal.Decimal
	Amortisation         decimal.Decimal
	NonRecurringExpenses decimal.Decimal
	InterestReceivable   decimal.Decimal
	InterestPayable      decimal.Decimal
	NetAssets            decimal.Decimal

	SalaryAdjustment       *decimal.Decimal
	PropertyOwned          bool
	PropertyRentAdjustment *decimal.Decimal

	// Client-supplied multiplier overrides, honored only when
	// AdjustMultipliers is set.
	AdjustMultipliers bool
	LowerMultiplier   *decimal.Decimal
	UpperMultiplier   *decimal.Decimal
}

type Result struct {
	SDE           decimal.Decimal
	ValuationLow  decimal.Decimal
	ValuationHigh decimal.Decimal
}

// Calculate is pure and deterministic: the same inputs always produce the
// same decimal output.
//
// SDE = profit + depreciation + amortisation + non-recurring expenses
//     + interest receivable - interest payable
//     + salary adjustment (when disclosed)
//     + forgone market rent (when the property is owned)
//
// Each bound is SDE x multiplier + net assets, rounded to the nearest
// thousand. SDE itself is never rounded.
func Calculate(in Inputs) Result {
	sde := in.Profit.
		Add(in.Depreciation).
		Add(in.Amortisation).
		Add(in.NonRecurringExpenses).
		Add(in.InterestReceivable).
		Sub(in.InterestPayable)

	if in.SalaryAdjustment != nil {
		sde = sde.Add(*in.SalaryAdjustment)
	}

	// An owner-occupied property carries no rent expense; adding the market
	// rent back isolates the underlying business earnings.
	if in.PropertyOwned && in.PropertyRentAdjustment != nil {
		sde = sde.Add(*in.PropertyRentAdjustment)
	}

	lower, upper := in.multipliers()

	return Result{
		SDE:           sde,
		ValuationLow:  roundToIncrement(sde.Mul(lower).Add(in.NetAssets)),
		ValuationHigh: roundToIncrement(sde.Mul(upper).Add(in.NetAssets)),
	}
}

func (in Inputs) multipliers() (decimal.Decimal, decimal.Decimal) {
	if in.AdjustMultipliers && in.LowerMultiplier != nil && in.UpperMultiplier != nil {
		return *in.LowerMultiplier, *in.UpperMultiplier
	}
	return BaseMultiplierLow, BaseMultiplierHigh
}

// roundToIncrement rounds to the nearest multiple of RoundingIncrement,
// half-to-even on the quotient.
func roundToIncrement(v decimal.Decimal) decimal.Decimal {
	return v.Div(RoundingIncrement).RoundBank(0).Mul(RoundingIncrement)
}
