package notifications

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"valuation-backend/internal/lead"
)

func dp(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return &v
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1,000"},
		{"341000", "341,000"},
		{"1234567", "1,234,567"},
		{"-553000", "-553,000"},
		{"341000.49", "341,000"},
	}

	for _, tc := range cases {
		if got := formatCurrency(dp(t, tc.in)); got != tc.want {
			t.Fatalf("formatCurrency(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatCurrencyNil(t *testing.T) {
	if got := formatCurrency(nil); got != "0" {
		t.Fatalf("expected 0 for nil, got %q", got)
	}
}

func TestBuildValuationResultHTML(t *testing.T) {
	l := lead.Lead{
		SessionID:     "a1b2c3",
		Name:          "Jane Smith",
		CompanyName:   "Smith Holdings Ltd",
		CompanySector: "Manufacturing",
		ValuationLow:  dp(t, "341000"),
		ValuationHigh: dp(t, "553000"),
	}

	html, err := buildValuationResultHTML(l, "https://example.com", "info@example.com", "0117 000 0000")
	if err != nil {
		t.Fatalf("buildValuationResultHTML error: %v", err)
	}

	for _, want := range []string{"Jane Smith", "341,000", "553,000", "a1b2c3", "info@example.com"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered email missing %q", want)
		}
	}
}

func TestBuildValuationResultHTMLFallsBackToCompanyName(t *testing.T) {
	l := lead.Lead{
		CompanyName:   "Smith Holdings Ltd",
		ValuationLow:  dp(t, "100000"),
		ValuationHigh: dp(t, "200000"),
	}

	html, err := buildValuationResultHTML(l, "", "", "")
	if err != nil {
		t.Fatalf("buildValuationResultHTML error: %v", err)
	}
	if !strings.Contains(html, "Hello Smith Holdings Ltd") {
		t.Fatalf("expected company name greeting")
	}
}
