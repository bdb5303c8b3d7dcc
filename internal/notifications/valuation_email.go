package notifications

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"valuation-backend/internal/lead"
)

const valuationResultTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hello {{.Name}},</p>
  <p>Thank you for using our business valuation tool. Based on the figures you provided, we estimate your business is worth:</p>
  <h2>&pound;{{.ValuationLow}} &ndash; &pound;{{.ValuationHigh}}</h2>
  <p>This range is derived from your Seller's Discretionary Earnings and the applicable industry multipliers. It is an indicative estimate, not a formal appraisal.</p>
  <ul>
    <li>Sector: {{.CompanySector}}</li>
    <li>Company: {{.CompanyName}}</li>
    <li>Reference: {{.SessionID}}</li>
  </ul>
  <p>If you would like to discuss the result, contact us at {{.ContactEmail}} or {{.ContactPhone}}.</p>
  <p><a href="{{.SiteURL}}">{{.SiteURL}}</a></p>
</body>
</html>`

var valuationResultTmpl = template.Must(template.New("valuation_result").Parse(valuationResultTemplate))

type valuationEmailContext struct {
	Name          string
	CompanySector string
	CompanyName   string
	SessionID     string
	ValuationLow  string
	ValuationHigh string
	ContactEmail  string
	ContactPhone  string
	SiteURL       string
}

func buildValuationResultHTML(l lead.Lead, siteURL, contactEmail, contactPhone string) (string, error) {
	name := l.Name
	if name == "" {
		name = l.CompanyName
	}
	ctx := valuationEmailContext{
		Name:          name,
		CompanySector: l.CompanySector,
		CompanyName:   l.CompanyName,
		SessionID:     l.SessionID,
		ValuationLow:  formatCurrency(l.ValuationLow),
		ValuationHigh: formatCurrency(l.ValuationHigh),
		ContactEmail:  contactEmail,
		ContactPhone:  contactPhone,
		SiteURL:       siteURL,
	}

	var buf bytes.Buffer
	if err := valuationResultTmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatCurrency renders a decimal as a whole-pound figure with thousands
// separators, e.g. 341000 -> "341,000".
func formatCurrency(v *decimal.Decimal) string {
	if v == nil {
		return "0"
	}
	s := v.Round(0).StringFixed(0)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var out strings.Builder
	head := len(s) % 3
	if head > 0 {
		out.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if out.Len() > 0 {
			out.WriteByte(',')
		}
		out.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + out.String()
	}
	return out.String()
}
