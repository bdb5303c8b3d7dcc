package lead

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	leads     map[string]Lead
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: map[string]Lead{}}
}

func (r *fakeRepo) Create(ctx context.Context, lead Lead) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.leads[lead.SessionID] = lead
	return nil
}

func (r *fakeRepo) GetBySessionID(ctx context.Context, sessionID string) (Lead, error) {
	lead, ok := r.leads[sessionID]
	if !ok {
		return Lead{}, mongo.ErrNoDocuments
	}
	return lead, nil
}

func (r *fakeRepo) Replace(ctx context.Context, lead Lead) (Lead, error) {
	if _, ok := r.leads[lead.SessionID]; !ok {
		return Lead{}, mongo.ErrNoDocuments
	}
	r.leads[lead.SessionID] = lead
	return lead, nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Lead, error) {
	items := make([]Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		items = append(items, lead)
	}
	return items, nil
}

func (r *fakeRepo) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return int64(len(r.leads)), nil
}

type fakeNotifier struct {
	sent []Lead
	err  error
}

func (n *fakeNotifier) SendValuationResult(ctx context.Context, lead Lead) (string, error) {
	if n.err != nil {
		return "", n.err
	}
	n.sent = append(n.sent, lead)
	return "message-id", nil
}

func newTestService(repo Repository, notifier Notifier) *Service {
	return NewService(repo, time.UTC, notifier)
}

func TestServiceCreate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Create(context.Background(), CreateRequest{
		Name:  "  Jane Smith  ",
		Email: "jane@example.com",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if len(created.SessionID) != 32 {
		t.Fatalf("expected 32-hex session token, got %q", created.SessionID)
	}
	if created.IsComplete {
		t.Fatalf("new lead must start incomplete")
	}
	if created.Role != RoleOther {
		t.Fatalf("expected default role other, got %q", created.Role)
	}
	if created.Name != "Jane Smith" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps must be set")
	}
	if created.SDE != nil || created.ValuationLow != nil || created.ValuationHigh != nil {
		t.Fatalf("derived fields must be nil until completion")
	}
}

func TestServiceCreateDuplicateSession(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), CreateRequest{})
	if !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("expected ErrDuplicateSession, got %v", err)
	}
}

func TestServiceUpdateNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	_, err := svc.Update(context.Background(), "missing", UpdateRequest{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceUpdatePartialPatch(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Create(context.Background(), CreateRequest{Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	updated, err := svc.Update(context.Background(), created.SessionID, UpdateRequest{
		Phone: sp("07700900123"),
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	if updated.IsComplete {
		t.Fatalf("partial patch must not complete the record")
	}
	if updated.Phone != "07700900123" {
		t.Fatalf("expected patched phone, got %q", updated.Phone)
	}
	if updated.Email != "jane@example.com" {
		t.Fatalf("expected stored email preserved, got %q", updated.Email)
	}
	if updated.SDE != nil {
		t.Fatalf("partial patch must not produce a valuation")
	}
}

func TestServiceUpdateIncompletePayloadFails(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Create(context.Background(), CreateRequest{})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Turnover triggers completeness; nearly everything else is missing.
	_, err = svc.Update(context.Background(), created.SessionID, UpdateRequest{
		Turnover: dp(t, "500000"),
	})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["email"]; !ok {
		t.Fatalf("expected missing email reported, got %v", ve.Fields)
	}

	stored, _ := repo.GetBySessionID(context.Background(), created.SessionID)
	if stored.Turnover != nil {
		t.Fatalf("rejected submission must not be persisted")
	}
}

func fullSubmission(t *testing.T) UpdateRequest {
	t.Helper()
	return UpdateRequest{
		Role:                sp(RoleSeller),
		Purpose:             sp("planning an exit"),
		Name:                sp("Jane Smith"),
		Email:               sp("jane@example.com"),
		Phone:               sp("07700900123"),
		CompanyName:         sp("Smith Holdings Ltd"),
		CompanyNumber:       sp("01234567"),
		CompanySector:       sp("Manufacturing"),
		PropertyOwnOrRent:   sp(PropertyRent),
		ShareholdersWorking: bp(false),

		Turnover:             dp(t, "500000"),
		PredictedTurnover:    dp(t, "550000"),
		Profit:               dp(t, "106000"),
		PredictedProfit:      dp(t, "110000"),
		NonRecurringExpenses: dp(t, "0"),
		InterestPayable:      dp(t, "0"),
		InterestReceivable:   dp(t, "0"),
		Depreciation:         dp(t, "0"),
		Amortisation:         dp(t, "0"),
		NetAssets:            dp(t, "23456"),
	}
}

func TestServiceUpdateCompletes(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Create(context.Background(), CreateRequest{})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	updated, err := svc.Update(context.Background(), created.SessionID, fullSubmission(t))
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	if !updated.IsComplete {
		t.Fatalf("full submission must complete the record")
	}
	if updated.SDE == nil || !updated.SDE.Equal(*dp(t, "106000")) {
		t.Fatalf("expected SDE 106000, got %v", updated.SDE)
	}
	// Base multipliers 3.0 and 5.0 apply; bounds round to the nearest
	// thousand.
	if updated.ValuationLow == nil || !updated.ValuationLow.Equal(*dp(t, "341000")) {
		t.Fatalf("expected low 341000, got %v", updated.ValuationLow)
	}
	if updated.ValuationHigh == nil || !updated.ValuationHigh.Equal(*dp(t, "553000")) {
		t.Fatalf("expected high 553000, got %v", updated.ValuationHigh)
	}

	stored, err := repo.GetBySessionID(context.Background(), created.SessionID)
	if err != nil {
		t.Fatalf("stored record missing: %v", err)
	}
	if !stored.IsComplete || stored.SDE == nil {
		t.Fatalf("completion must persist atomically with the figures")
	}
}

func TestServiceUpdateAlreadyComplete(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Create(context.Background(), CreateRequest{})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := svc.Update(context.Background(), created.SessionID, fullSubmission(t)); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	_, err = svc.Update(context.Background(), created.SessionID, UpdateRequest{Phone: sp("07700900999")})
	if !errors.Is(err, ErrAlreadyComplete) {
		t.Fatalf("expected ErrAlreadyComplete, got %v", err)
	}
}

func TestServiceUpdateRejectsZeroMultiplierOnPartialPatch(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	created, err := svc.Create(context.Background(), CreateRequest{})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	_, err = svc.Update(context.Background(), created.SessionID, UpdateRequest{
		LowerMultiplier: dp(t, "0"),
	})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["lower_multiplier"]; !ok {
		t.Fatalf("expected lower_multiplier error, got %v", ve.Fields)
	}
}

func TestServiceNotifyValuation(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(newFakeRepo(), notifier)

	lead := Lead{SessionID: "abc", Email: "jane@example.com"}
	if err := svc.NotifyValuation(context.Background(), lead); err != nil {
		t.Fatalf("NotifyValuation error: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(notifier.sent))
	}
}

func TestServiceNotifyValuationSkipsWithoutEmail(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(newFakeRepo(), notifier)

	if err := svc.NotifyValuation(context.Background(), Lead{SessionID: "abc"}); err != nil {
		t.Fatalf("NotifyValuation error: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no email without a recipient")
	}
}

func TestServiceNotifyValuationNilNotifier(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	if err := svc.NotifyValuation(context.Background(), Lead{Email: "jane@example.com"}); err != nil {
		t.Fatalf("nil notifier must be a no-op, got %v", err)
	}
}

func TestServiceNotifyValuationSurfacesError(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	svc := newTestService(newFakeRepo(), notifier)

	err := svc.NotifyValuation(context.Background(), Lead{Email: "jane@example.com"})
	if err == nil {
		t.Fatalf("expected notifier error to be returned for the caller to log")
	}
}

func TestServiceListAdminInvalidFilters(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	if _, _, err := svc.ListAdmin(context.Background(), ListFilter{Role: "landlord"}, 20, 0); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, _, err := svc.ListAdmin(context.Background(), ListFilter{Tenure: "lease"}, 20, 0); !errors.Is(err, ErrInvalidTenure) {
		t.Fatalf("expected ErrInvalidTenure, got %v", err)
	}
}
