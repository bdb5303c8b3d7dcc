package lead

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	msgRequired           = "this field is required"
	msgPositiveMultiplier = "must be a non-zero positive number"
)

// Merge overlays a patch onto the stored record; the payload wins wherever it
// supplies a value. The result is the combined view the validator and engine
// both run against, so a completion decision and the figures it is based on
// can never diverge.
func Merge(existing Lead, req UpdateRequest) Lead {
	out := existing

	setString(&out.Role, req.Role)
	setString(&out.Purpose, req.Purpose)
	setString(&out.ManagementPreference, req.ManagementPreference)
	setString(&out.CompanySector, req.CompanySector)
	setString(&out.PropertyOwnOrRent, req.PropertyOwnOrRent)
	setString(&out.Name, req.Name)
	setString(&out.Email, req.Email)
	setString(&out.Phone, req.Phone)
	setString(&out.CompanyName, req.CompanyName)
	setString(&out.CompanyNumber, req.CompanyNumber)

	setBool(&out.ShareholdersWorking, req.ShareholdersWorking)
	setBool(&out.TakingSalary, req.TakingSalary)
	setBool(&out.AdjustMultipliers, req.AdjustMultipliers)
	setBool(&out.SpokenToAccountant, req.SpokenToAccountant)
	setBool(&out.SpokenToBroker, req.SpokenToBroker)

	setDecimal(&out.SalaryAdjustment, req.SalaryAdjustment)
	setDecimal(&out.PropertyRentAdjustment, req.PropertyRentAdjustment)
	setDecimal(&out.LowerMultiplier, req.LowerMultiplier)
	setDecimal(&out.UpperMultiplier, req.UpperMultiplier)
	setDecimal(&out.Turnover, req.Turnover)
	setDecimal(&out.PredictedTurnover, req.PredictedTurnover)
	setDecimal(&out.Profit, req.Profit)
	setDecimal(&out.PredictedProfit, req.PredictedProfit)
	setDecimal(&out.NonRecurringExpenses, req.NonRecurringExpenses)
	setDecimal(&out.InterestPayable, req.InterestPayable)
	setDecimal(&out.InterestReceivable, req.InterestReceivable)
	setDecimal(&out.Depreciation, req.Depreciation)
	setDecimal(&out.Amortisation, req.Amortisation)
	setDecimal(&out.NetAssets, req.NetAssets)

	return out
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setBool(dst **bool, src *bool) {
	if src != nil {
		*dst = src
	}
}

func setDecimal(dst **decimal.Decimal, src *decimal.Decimal) {
	if src != nil {
		*dst = src
	}
}

// CompletenessTriggered reports whether the merged view is attempting a full
// submission. Any of the three headline figures flips the record from
// partial-patch mode into full validation.
func CompletenessTriggered(l Lead) bool {
	return l.Turnover != nil || l.Profit != nil || l.NetAssets != nil
}

// ValidatePartial applies the rules that hold at every stage, complete or
// not. Multipliers must be strictly positive whenever they are supplied.
func ValidatePartial(l Lead) map[string]string {
	errs := map[string]string{}
	checkMultiplier(errs, "lower_multiplier", l.LowerMultiplier)
	checkMultiplier(errs, "upper_multiplier", l.UpperMultiplier)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateComplete checks a merged record against the full-submission rules.
// It is pure and collects every violation so the client can fix them in one
// round trip. Field keys are wire names.
func ValidateComplete(l Lead) map[string]string {
	errs := map[string]string{}

	// Contact and purpose.
	requireString(errs, "name", l.Name)
	requireString(errs, "email", l.Email)
	requireString(errs, "phone", l.Phone)
	requireString(errs, "company_name", l.CompanyName)
	requireString(errs, "company_number", l.CompanyNumber)
	requireString(errs, "role", l.Role)
	requireString(errs, "purpose", l.Purpose)

	// Business facts.
	requireString(errs, "company_sector", l.CompanySector)
	if l.PropertyOwnOrRent == "" {
		errs["property_own_or_rent"] = msgRequired
	} else if !IsValidTenure(l.PropertyOwnOrRent) {
		errs["property_own_or_rent"] = "must be one of own, rent"
	}

	if l.AdjustMultipliers != nil && *l.AdjustMultipliers {
		requireDecimal(errs, "lower_multiplier", l.LowerMultiplier)
		requireDecimal(errs, "upper_multiplier", l.UpperMultiplier)
	}
	checkMultiplier(errs, "lower_multiplier", l.LowerMultiplier)
	checkMultiplier(errs, "upper_multiplier", l.UpperMultiplier)

	// Financial facts. Zero is a legitimate figure; only absence fails.
	requireDecimal(errs, "turnover", l.Turnover)
	requireDecimal(errs, "profit", l.Profit)
	requireDecimal(errs, "predicted_turnover", l.PredictedTurnover)
	requireDecimal(errs, "predicted_profit", l.PredictedProfit)
	requireDecimal(errs, "interest_payable", l.InterestPayable)
	requireDecimal(errs, "interest_receivable", l.InterestReceivable)
	requireDecimal(errs, "non_recurring_expenses", l.NonRecurringExpenses)
	requireDecimal(errs, "depreciation", l.Depreciation)
	requireDecimal(errs, "amortisation", l.Amortisation)
	requireDecimal(errs, "net_assets", l.NetAssets)

	validateRoleRules(errs, l)

	// An owned property means the business pays no rent; the forgone market
	// rent must be disclosed as an addback.
	if l.PropertyOwnOrRent == PropertyOwn && l.PropertyRentAdjustment == nil {
		errs["property_market_rent_adjustment"] = "required when the property is owned"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateRoleRules(errs map[string]string, l Lead) {
	if l.Role == RoleBuyer {
		if l.ManagementPreference == "" {
			errs["management_preference"] = "required for buyers"
			return
		}
		switch l.ManagementPreference {
		case ManagementRunMyself:
			if l.SalaryAdjustment == nil {
				errs["salary_adjustment"] = "required when you plan to run the business yourself"
			}
		case ManagementRetained:
			validateShareholderCascade(errs, l)
		}
		return
	}

	// Sellers, both, other: the shareholder questions always apply.
	validateShareholderCascade(errs, l)
}

func validateShareholderCascade(errs map[string]string, l Lead) {
	if l.ShareholdersWorking == nil {
		errs["shareholders_working_in_business"] = msgRequired
		return
	}
	if !*l.ShareholdersWorking {
		return
	}
	if l.TakingSalary == nil {
		errs["taking_full_market_salary"] = "required when shareholders are working in the business"
		return
	}
	if *l.TakingSalary && l.SalaryAdjustment == nil {
		errs["salary_adjustment"] = "required when shareholders take a salary"
	}
}

func requireString(errs map[string]string, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = msgRequired
	}
}

func requireDecimal(errs map[string]string, field string, value *decimal.Decimal) {
	if value == nil {
		errs[field] = msgRequired
	}
}

func checkMultiplier(errs map[string]string, field string, value *decimal.Decimal) {
	if value != nil && !value.IsPositive() {
		errs[field] = msgPositiveMultiplier
	}
}
