package valuation

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return v
}

func dp(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	v := d(t, s)
	return &v
}

func TestCalculateSDE(t *testing.T) {
	in := Inputs{
		Profit:               d(t, "100000"),
		Depreciation:         d(t, "5000"),
		Amortisation:         d(t, "2000"),
		NonRecurringExpenses: d(t, "1000"),
		InterestReceivable:   d(t, "500"),
		InterestPayable:      d(t, "1500"),
		SalaryAdjustment:     dp(t, "0"),
		PropertyOwned:        false,
	}

	result := Calculate(in)

	// 100000 + 5000 + 2000 + 1000 + 500 - 1500
	if !result.SDE.Equal(d(t, "107000")) {
		t.Fatalf("expected SDE 107000, got %s", result.SDE)
	}
}

func TestCalculateRounding(t *testing.T) {
	in := Inputs{
		Profit:            d(t, "106000"),
		NetAssets:         d(t, "23456"),
		AdjustMultipliers: true,
		LowerMultiplier:   dp(t, "3.0"),
		UpperMultiplier:   dp(t, "5.0"),
	}

	result := Calculate(in)

	// Raw bounds are 341456 and 553456; both round to the nearest thousand.
	if !result.ValuationLow.Equal(d(t, "341000")) {
		t.Fatalf("expected low 341000, got %s", result.ValuationLow)
	}
	if !result.ValuationHigh.Equal(d(t, "553000")) {
		t.Fatalf("expected high 553000, got %s", result.ValuationHigh)
	}
	if !result.SDE.Equal(d(t, "106000")) {
		t.Fatalf("SDE must not be rounded, got %s", result.SDE)
	}
}

func TestCalculateRoundsHalfToEven(t *testing.T) {
	cases := []struct {
		netAssets string
		want      string
	}{
		{"500", "0"},
		{"1500", "2000"},
		{"2500", "2000"},
		{"3500", "4000"},
	}

	for _, tc := range cases {
		in := Inputs{NetAssets: d(t, tc.netAssets)}
		result := Calculate(in)
		if !result.ValuationLow.Equal(d(t, tc.want)) {
			t.Fatalf("net assets %s: expected %s, got %s", tc.netAssets, tc.want, result.ValuationLow)
		}
	}
}

func TestCalculateDefaultMultipliers(t *testing.T) {
	in := Inputs{
		Profit:    d(t, "100000"),
		NetAssets: d(t, "0"),
	}

	result := Calculate(in)

	if !result.ValuationLow.Equal(d(t, "300000")) {
		t.Fatalf("expected low 300000 from base multiplier, got %s", result.ValuationLow)
	}
	if !result.ValuationHigh.Equal(d(t, "500000")) {
		t.Fatalf("expected high 500000 from base multiplier, got %s", result.ValuationHigh)
	}
}

func TestCalculateIgnoresMultipliersWithoutAdjustFlag(t *testing.T) {
	in := Inputs{
		Profit:          d(t, "100000"),
		LowerMultiplier: dp(t, "10"),
		UpperMultiplier: dp(t, "20"),
	}

	result := Calculate(in)

	if !result.ValuationLow.Equal(d(t, "300000")) {
		t.Fatalf("expected base multiplier without adjust flag, got %s", result.ValuationLow)
	}
}

func TestCalculateZeroMultiplierYieldsNetAssets(t *testing.T) {
	in := Inputs{
		Profit:            d(t, "100000"),
		NetAssets:         d(t, "23456"),
		AdjustMultipliers: true,
		LowerMultiplier:   dp(t, "0"),
		UpperMultiplier:   dp(t, "0"),
	}

	result := Calculate(in)

	if !result.ValuationLow.Equal(d(t, "23000")) {
		t.Fatalf("expected rounded net assets, got %s", result.ValuationLow)
	}
	if !result.ValuationHigh.Equal(d(t, "23000")) {
		t.Fatalf("expected rounded net assets, got %s", result.ValuationHigh)
	}
}

func TestCalculateSalaryAddbackUnconditional(t *testing.T) {
	in := Inputs{
		Profit:           d(t, "100000"),
		SalaryAdjustment: dp(t, "12000"),
		PropertyOwned:    false,
	}

	result := Calculate(in)

	if !result.SDE.Equal(d(t, "112000")) {
		t.Fatalf("expected salary addback regardless of tenure, got %s", result.SDE)
	}
}

func TestCalculateRentAddbackOnlyWhenOwned(t *testing.T) {
	owned := Inputs{
		Profit:                 d(t, "100000"),
		PropertyOwned:          true,
		PropertyRentAdjustment: dp(t, "24000"),
	}
	rented := owned
	rented.PropertyOwned = false

	if got := Calculate(owned).SDE; !got.Equal(d(t, "124000")) {
		t.Fatalf("expected rent addback when owned, got %s", got)
	}
	if got := Calculate(rented).SDE; !got.Equal(d(t, "100000")) {
		t.Fatalf("expected no rent addback when rented, got %s", got)
	}
}

func TestCalculateNegativeSDEPropagates(t *testing.T) {
	in := Inputs{
		Profit: d(t, "-50000"),
	}

	result := Calculate(in)

	if !result.SDE.Equal(d(t, "-50000")) {
		t.Fatalf("expected negative SDE, got %s", result.SDE)
	}
	// No clamping: bounds may be negative and the "low" bound may exceed the
	// "high" one when SDE is negative.
	if !result.ValuationLow.Equal(d(t, "-150000")) {
		t.Fatalf("expected low -150000, got %s", result.ValuationLow)
	}
	if !result.ValuationHigh.Equal(d(t, "-250000")) {
		t.Fatalf("expected high -250000, got %s", result.ValuationHigh)
	}
}

func TestCalculateDeterministic(t *testing.T) {
	in := Inputs{
		Profit:               d(t, "87654.32"),
		Depreciation:         d(t, "1234.56"),
		Amortisation:         d(t, "789.01"),
		NonRecurringExpenses: d(t, "450.25"),
		InterestReceivable:   d(t, "12.34"),
		InterestPayable:      d(t, "56.78"),
		NetAssets:            d(t, "10000.99"),
		SalaryAdjustment:     dp(t, "20000"),
		PropertyOwned:        true,
		AdjustMultipliers:    true,
		LowerMultiplier:      dp(t, "2.75"),
		UpperMultiplier:      dp(t, "4.25"),
	}

	first := Calculate(in)
	second := Calculate(in)

	if first.SDE.String() != second.SDE.String() {
		t.Fatalf("SDE not deterministic: %s vs %s", first.SDE, second.SDE)
	}
	if first.ValuationLow.String() != second.ValuationLow.String() {
		t.Fatalf("low not deterministic: %s vs %s", first.ValuationLow, second.ValuationLow)
	}
	if first.ValuationHigh.String() != second.ValuationHigh.String() {
		t.Fatalf("high not deterministic: %s vs %s", first.ValuationHigh, second.ValuationHigh)
	}
}

func TestApplyFloor(t *testing.T) {
	if got := ApplyFloor(d(t, "10000")); !got.Equal(MinValuation) {
		t.Fatalf("expected floor %s, got %s", MinValuation, got)
	}
	if got := ApplyFloor(d(t, "75000")); !got.Equal(d(t, "75000")) {
		t.Fatalf("expected value above floor unchanged, got %s", got)
	}
}
