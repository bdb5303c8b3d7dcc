package lead

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleBoth   = "both"
	RoleOther  = "other"

	ManagementRetained  = "retained_management"
	ManagementRunMyself = "run_myself"

	PropertyOwn  = "own"
	PropertyRent = "rent"
)

var validRoles = map[string]struct{}{
	RoleBuyer:  {},
	RoleSeller: {},
	RoleBoth:   {},
	RoleOther:  {},
}

var validManagementPreferences = map[string]struct{}{
	ManagementRetained:  {},
	ManagementRunMyself: {},
}

var validTenures = map[string]struct{}{
	PropertyOwn:  {},
	PropertyRent: {},
}

func IsValidRole(value string) bool {
	_, ok := validRoles[value]
	return ok
}

func IsValidManagementPreference(value string) bool {
	_, ok := validManagementPreferences[value]
	return ok
}

func IsValidTenure(value string) bool {
	_, ok := validTenures[value]
	return ok
}

// Lead is a single business-sale enquiry. It is created incomplete with just
// contact and role data, and transitions to complete exactly once, when a
// full financial payload validates and the valuation is written.
//
// The session token doubles as the _id, so storage-level uniqueness is the
// collection's primary key constraint. Decimal fields are pointers: nil means
// the client has not disclosed the figure, which is different from zero.
type Lead struct {
	SessionID  string `bson:"_id" json:"session_id"`
	IsComplete bool   `bson:"is_complete" json:"is_complete"`

	Role                 string `bson:"role,omitempty" json:"role,omitempty"`
	Purpose              string `bson:"purpose,omitempty" json:"purpose,omitempty"`
	ManagementPreference string `bson:"management_preference,omitempty" json:"management_preference,omitempty"`

	CompanySector          string           `bson:"company_sector,omitempty" json:"company_sector,omitempty"`
	ShareholdersWorking    *bool            `bson:"shareholders_working_in_business,omitempty" json:"shareholders_working_in_business,omitempty"`
	TakingSalary           *bool            `bson:"taking_full_market_salary,omitempty" json:"taking_full_market_salary,omitempty"`
	SalaryAdjustment       *decimal.Decimal `bson:"salary_adjustment,omitempty" json:"salary_adjustment,omitempty"`
	PropertyOwnOrRent      string           `bson:"property_own_or_rent,omitempty" json:"property_own_or_rent,omitempty"`
	PropertyRentAdjustment *decimal.Decimal `bson:"property_market_rent_adjustment,omitempty" json:"property_market_rent_adjustment,omitempty"`
	AdjustMultipliers      *bool            `bson:"adjust_industry_multipliers,omitempty" json:"adjust_industry_multipliers,omitempty"`
	LowerMultiplier        *decimal.Decimal `bson:"lower_multiplier,omitempty" json:"lower_multiplier,omitempty"`
	UpperMultiplier        *decimal.Decimal `bson:"upper_multiplier,omitempty" json:"upper_multiplier,omitempty"`
	SpokenToAccountant     *bool            `bson:"spoken_to_accountant,omitempty" json:"spoken_to_accountant,omitempty"`
	SpokenToBroker         *bool            `bson:"spoken_to_broker,omitempty" json:"spoken_to_broker,omitempty"`

	Turnover             *decimal.Decimal `bson:"turnover,omitempty" json:"turnover,omitempty"`
	PredictedTurnover    *decimal.Decimal `bson:"predicted_turnover,omitempty" json:"predicted_turnover,omitempty"`
	Profit               *decimal.Decimal `bson:"profit,omitempty" json:"profit,omitempty"`
	PredictedProfit      *decimal.Decimal `bson:"predicted_profit,omitempty" json:"predicted_profit,omitempty"`
	NonRecurringExpenses *decimal.Decimal `bson:"non_recurring_expenses,omitempty" json:"non_recurring_expenses,omitempty"`
	InterestPayable      *decimal.Decimal `bson:"interest_payable,omitempty" json:"interest_payable,omitempty"`
	InterestReceivable   *decimal.Decimal `bson:"interest_receivable,omitempty" json:"interest_receivable,omitempty"`
	Depreciation         *decimal.Decimal `bson:"depreciation,omitempty" json:"depreciation,omitempty"`
	Amortisation         *decimal.Decimal `bson:"amortisation,omitempty" json:"amortisation,omitempty"`
	NetAssets            *decimal.Decimal `bson:"net_assets,omitempty" json:"net_assets,omitempty"`

	Name          string `bson:"name,omitempty" json:"name,omitempty"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string `bson:"phone,omitempty" json:"phone,omitempty"`
	CompanyName   string `bson:"company_name,omitempty" json:"company_name,omitempty"`
	CompanyNumber string `bson:"company_number,omitempty" json:"company_number,omitempty"`

	// Derived fields, written once by the valuation engine when the record
	// completes. Never accepted from clients.
	SDE           *decimal.Decimal `bson:"sde,omitempty" json:"sde,omitempty"`
	ValuationLow  *decimal.Decimal `bson:"valuation_low,omitempty" json:"valuation_low,omitempty"`
	ValuationHigh *decimal.Decimal `bson:"valuation_high,omitempty" json:"valuation_high,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CreateRequest bootstraps a session. Everything is optional so the form can
// persist a bare contact capture; supplied values are still format-checked.
type CreateRequest struct {
	Role                 string `json:"role" validate:"omitempty,oneof=buyer seller both other"`
	Purpose              string `json:"purpose"`
	ManagementPreference string `json:"management_preference" validate:"omitempty,oneof=retained_management run_myself"`
	Name                 string `json:"name"`
	Email                string `json:"email" validate:"omitempty,email"`
	Phone                string `json:"phone" validate:"omitempty,phone"`
	CompanyName          string `json:"company_name"`
	CompanyNumber        string `json:"company_number"`
}

// UpdateRequest patches an existing session. All fields are pointers so an
// absent field leaves the stored value untouched; a present field wins.
type UpdateRequest struct {
	Role                 *string `json:"role" validate:"omitempty,oneof=buyer seller both other"`
	Purpose              *string `json:"purpose"`
	ManagementPreference *string `json:"management_preference" validate:"omitempty,oneof=retained_management run_myself"`

	CompanySector          *string          `json:"company_sector"`
	ShareholdersWorking    *bool            `json:"shareholders_working_in_business"`
	TakingSalary           *bool            `json:"taking_full_market_salary"`
	SalaryAdjustment       *decimal.Decimal `json:"salary_adjustment"`
	PropertyOwnOrRent      *string          `json:"property_own_or_rent" validate:"omitempty,oneof=own rent"`
	PropertyRentAdjustment *decimal.Decimal `json:"property_market_rent_adjustment"`
	AdjustMultipliers      *bool            `json:"adjust_industry_multipliers"`
	LowerMultiplier        *decimal.Decimal `json:"lower_multiplier"`
	UpperMultiplier        *decimal.Decimal `json:"upper_multiplier"`
	SpokenToAccountant     *bool            `json:"spoken_to_accountant"`
	SpokenToBroker         *bool            `json:"spoken_to_broker"`

	Turnover             *decimal.Decimal `json:"turnover"`
	PredictedTurnover    *decimal.Decimal `json:"predicted_turnover"`
	Profit               *decimal.Decimal `json:"profit"`
	PredictedProfit      *decimal.Decimal `json:"predicted_profit"`
	NonRecurringExpenses *decimal.Decimal `json:"non_recurring_expenses"`
	InterestPayable      *decimal.Decimal `json:"interest_payable"`
	InterestReceivable   *decimal.Decimal `json:"interest_receivable"`
	Depreciation         *decimal.Decimal `json:"depreciation"`
	Amortisation         *decimal.Decimal `json:"amortisation"`
	NetAssets            *decimal.Decimal `json:"net_assets"`

	Name          *string `json:"name"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Phone         *string `json:"phone" validate:"omitempty,phone"`
	CompanyName   *string `json:"company_name"`
	CompanyNumber *string `json:"company_number"`
}

type ListFilter struct {
	Complete *bool
	Role     string
	Tenure   string
	Query    string
}

// NewSessionID returns an opaque 32-hex token. Collisions at 128 bits are
// astronomically unlikely; creation still fails on a duplicate key.
func NewSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return primitive.NewObjectID().Hex()
	}
	return hex.EncodeToString(buf)
}
