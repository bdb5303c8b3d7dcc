package lead

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"

	"valuation-backend/internal/valuation"
)

var (
	ErrNotFound         = errors.New("lead not found")
	ErrAlreadyComplete  = errors.New("lead already complete")
	ErrDuplicateSession = errors.New("session token collision")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidTenure    = errors.New("invalid tenure")
)

// ValidationError carries field-scoped reasons back to the boundary layer.
// It is a client fault, never logged as a server error.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

type Notifier interface {
	SendValuationResult(ctx context.Context, lead Lead) (string, error)
}

type Service struct {
	repo     Repository
	location *time.Location
	notifier Notifier
}

func NewService(repo Repository, location *time.Location, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		location: location,
		notifier: notifier,
	}
}

// Create bootstraps an incomplete record from whatever contact and role data
// the first form step captured. Nothing is required at this stage.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Lead, error) {
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = RoleOther
	}

	now := time.Now().In(s.location)
	lead := Lead{
		SessionID:            NewSessionID(),
		IsComplete:           false,
		Role:                 role,
		Purpose:              strings.TrimSpace(req.Purpose),
		ManagementPreference: strings.TrimSpace(req.ManagementPreference),
		Name:                 strings.TrimSpace(req.Name),
		Email:                strings.TrimSpace(req.Email),
		Phone:                strings.TrimSpace(req.Phone),
		CompanyName:          strings.TrimSpace(req.CompanyName),
		CompanyNumber:        strings.TrimSpace(req.CompanyNumber),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Create(ctx, lead); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Lead{}, ErrDuplicateSession
		}
		return Lead{}, err
	}

	return lead, nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (Lead, error) {
	lead, err := s.repo.GetBySessionID(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return lead, nil
}

// Update is the record's single state transition. The payload is merged over
// the stored record; if the combined view carries any of turnover, profit or
// net assets the caller is attempting a full submission and the completeness
// rules apply, then the valuation engine runs and the record flips to
// complete. Otherwise this is another partial patch and only the
// stage-independent rules are enforced.
func (s *Service) Update(ctx context.Context, sessionID string, req UpdateRequest) (Lead, error) {
	existing, err := s.Get(ctx, sessionID)
	if err != nil {
		return Lead{}, err
	}
	if existing.IsComplete {
		return Lead{}, ErrAlreadyComplete
	}

	merged := Merge(existing, req)
	merged.UpdatedAt = time.Now().In(s.location)

	if CompletenessTriggered(merged) {
		if fields := ValidateComplete(merged); fields != nil {
			return Lead{}, &ValidationError{Fields: fields}
		}
		result := valuation.Calculate(engineInputs(merged))
		merged.SDE = &result.SDE
		merged.ValuationLow = &result.ValuationLow
		merged.ValuationHigh = &result.ValuationHigh
		merged.IsComplete = true
	} else {
		if fields := ValidatePartial(merged); fields != nil {
			return Lead{}, &ValidationError{Fields: fields}
		}
	}

	updated, err := s.repo.Replace(ctx, merged)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return updated, nil
}

func (s *Service) ListAdmin(ctx context.Context, filter ListFilter, limit, offset int64) ([]Lead, int64, error) {
	filter.Role = strings.ToLower(strings.TrimSpace(filter.Role))
	filter.Tenure = strings.ToLower(strings.TrimSpace(filter.Tenure))
	filter.Query = strings.TrimSpace(filter.Query)

	if filter.Role != "" && !IsValidRole(filter.Role) {
		return nil, 0, ErrInvalidRole
	}
	if filter.Tenure != "" && !IsValidTenure(filter.Tenure) {
		return nil, 0, ErrInvalidTenure
	}

	items, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// NotifyValuation sends the completion email. Callers run it after the
// transaction commits; a failure is theirs to log, never to surface.
func (s *Service) NotifyValuation(ctx context.Context, lead Lead) error {
	if s.notifier == nil {
		return nil
	}
	if strings.TrimSpace(lead.Email) == "" {
		return nil
	}
	_, err := s.notifier.SendValuationResult(ctx, lead)
	return err
}

// engineInputs projects a validated record onto the engine's input shape.
// The validator guarantees the required figures are present; zero-valued
// defaults are kept anyway so the projection is total.
func engineInputs(l Lead) valuation.Inputs {
	return valuation.Inputs{
		Profit:               deref(l.Profit),
		Depreciation:         deref(l.Depreciation),
		Amortisation:         deref(l.Amortisation),
		NonRecurringExpenses: deref(l.NonRecurringExpenses),
		InterestReceivable:   deref(l.InterestReceivable),
		InterestPayable:      deref(l.InterestPayable),
		NetAssets:            deref(l.NetAssets),

		SalaryAdjustment:       l.SalaryAdjustment,
		PropertyOwned:          l.PropertyOwnOrRent == PropertyOwn,
		PropertyRentAdjustment: l.PropertyRentAdjustment,

		AdjustMultipliers: l.AdjustMultipliers != nil && *l.AdjustMultipliers,
		LowerMultiplier:   l.LowerMultiplier,
		UpperMultiplier:   l.UpperMultiplier,
	}
}

func deref(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Decimal{}
	}
	return *v
}
