package sells

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/internal/ledger"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
	"github.com/Bbt3-alx/akera-backend/pkg/outbox"
)

type fakeRepository struct {
	sells map[uuid.UUID]*models.SellOperation
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, sell *models.SellOperation) error {
	if sell.ID == uuid.Nil {
		sell.ID = uuid.New()
	}
	f.sells[sell.ID] = sell
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.SellOperation, error) {
	sell, ok := f.sells[id]
	if !ok || sell.CompanyID != companyID {
		return nil, gorm.ErrRecordNotFound
	}
	return sell, nil
}

func (f *fakeRepository) List(ctx context.Context, opts listQuery) ([]models.SellOperation, error) {
	return nil, nil
}

func (f *fakeRepository) Save(ctx context.Context, sell *models.SellOperation) error {
	f.sells[sell.ID] = sell
	return nil
}

type fakeLedger struct {
	company *models.Company
}

func (f *fakeLedger) WithTx(tx *gorm.DB) ledger.Repository { return f }

func (f *fakeLedger) FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	if f.company == nil || f.company.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.company, nil
}

func (f *fakeLedger) AdjustCompany(ctx context.Context, id uuid.UUID, delta ledger.CompanyDelta) error {
	f.company.CashBalance = f.company.CashBalance.Add(delta.Cash)
	f.company.UsdBalance = f.company.UsdBalance.Add(delta.Usd)
	f.company.RemainWeight = f.company.RemainWeight.Add(delta.RemainWeight)
	f.company.TotalWeightExpedited = f.company.TotalWeightExpedited.Add(delta.WeightExpedited)
	return nil
}

func (f *fakeLedger) AdjustPartnerBalance(ctx context.Context, partnerID uuid.UUID, delta decimal.Decimal) error {
	return nil
}

func (f *fakeLedger) AdjustCustomerToPaid(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) error {
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T, company *models.Company) (Service, *fakeRepository, *fakeLedger, *fakeOutbox) {
	t.Helper()
	repo := &fakeRepository{sells: map[uuid.UUID]*models.SellOperation{}}
	led := &fakeLedger{company: company}
	ob := &fakeOutbox{}
	svc, err := NewService(repo, led, fakeTxRunner{}, ob)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, repo, led, ob
}

func TestService_CreateConvertsAndSettles(t *testing.T) {
	company := &models.Company{
		ID:           uuid.New(),
		Name:         "Akera Gold",
		RemainWeight: decimal.NewFromInt(100),
	}
	svc, _, _, ob := newTestService(t, company)

	// one troy ounce exactly
	sell, err := svc.Create(context.Background(), CreateInput{
		CompanyID: company.ID,
		ManagerID: uuid.New(),
		Weight:    decimal.RequireFromString("31.1035"),
		Unit:      enums.WeightUnitGram,
		Rate:      decimal.NewFromInt(2000),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if !sell.TroyOunces.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("troy ounces %s, want 1", sell.TroyOunces)
	}
	if !sell.Amount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("amount %s, want 2000", sell.Amount)
	}
	if !company.UsdBalance.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("usd balance %s, want 2000", company.UsdBalance)
	}
	if !company.RemainWeight.Equal(decimal.RequireFromString("68.8965")) {
		t.Fatalf("remain weight %s, want 68.8965", company.RemainWeight)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventSellCreated {
		t.Fatalf("expected sell_created event, got %+v", ob.events)
	}
}

func TestService_CreateNormalizesKilograms(t *testing.T) {
	company := &models.Company{
		ID:           uuid.New(),
		Name:         "Akera Gold",
		RemainWeight: decimal.NewFromInt(2000),
	}
	svc, _, _, _ := newTestService(t, company)

	sell, err := svc.Create(context.Background(), CreateInput{
		CompanyID: company.ID,
		Weight:    decimal.NewFromInt(1),
		Unit:      enums.WeightUnitKilogram,
		Rate:      decimal.NewFromInt(1500),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if !sell.WeightGrams.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("weight grams %s, want 1000", sell.WeightGrams)
	}
	if !company.RemainWeight.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("remain weight %s, want 1000", company.RemainWeight)
	}
	if !sell.Amount.Equal(sell.TroyOunces.Mul(decimal.NewFromInt(1500)).Round(2)) {
		t.Fatalf("amount %s not rate times ounces", sell.Amount)
	}
}

func TestService_CreateRejections(t *testing.T) {
	company := &models.Company{
		ID:           uuid.New(),
		Name:         "Akera Gold",
		RemainWeight: decimal.NewFromInt(10),
	}
	svc, _, _, _ := newTestService(t, company)

	tests := []struct {
		name   string
		weight decimal.Decimal
		unit   enums.WeightUnit
		rate   decimal.Decimal
		code   pkgerrors.Code
	}{
		{name: "zero weight", weight: decimal.Zero, unit: enums.WeightUnitGram, rate: decimal.NewFromInt(2000), code: pkgerrors.CodeValidation},
		{name: "negative rate", weight: decimal.NewFromInt(5), unit: enums.WeightUnitGram, rate: decimal.NewFromInt(-1), code: pkgerrors.CodeValidation},
		{name: "unknown unit", weight: decimal.NewFromInt(5), unit: enums.WeightUnit("oz"), rate: decimal.NewFromInt(2000), code: pkgerrors.CodeValidation},
		{name: "exceeds held weight", weight: decimal.NewFromInt(11), unit: enums.WeightUnitGram, rate: decimal.NewFromInt(2000), code: pkgerrors.CodeInsufficientFunds},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateInput{
				CompanyID: company.ID,
				Weight:    tc.weight,
				Unit:      tc.unit,
				Rate:      tc.rate,
			})
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}

	if !company.RemainWeight.Equal(decimal.NewFromInt(10)) || !company.UsdBalance.IsZero() {
		t.Fatal("rejected sales must not move balances")
	}
}

func TestService_UpdateAppliesOnlyTheDifference(t *testing.T) {
	company := &models.Company{
		ID:           uuid.New(),
		Name:         "Akera Gold",
		RemainWeight: decimal.NewFromInt(100),
	}
	svc, _, _, ob := newTestService(t, company)

	sell, err := svc.Create(context.Background(), CreateInput{
		CompanyID: company.ID,
		Weight:    decimal.RequireFromString("31.1035"),
		Unit:      enums.WeightUnitGram,
		Rate:      decimal.NewFromInt(2000),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	newWeight := decimal.RequireFromString("62.2070")
	updated, err := svc.Update(context.Background(), UpdateInput{
		CompanyID: company.ID,
		SellID:    sell.ID,
		Weight:    &newWeight,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	if !updated.TroyOunces.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("troy ounces %s, want 2", updated.TroyOunces)
	}
	if !updated.Amount.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("amount %s, want 4000", updated.Amount)
	}
	if !company.RemainWeight.Equal(decimal.RequireFromString("37.7930")) {
		t.Fatalf("remain weight %s, want 37.7930", company.RemainWeight)
	}
	if !company.UsdBalance.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("usd balance %s, want 4000", company.UsdBalance)
	}
	if ob.events[len(ob.events)-1].EventType != enums.EventSellUpdated {
		t.Fatal("expected sell_updated event")
	}
}

func TestService_UpdateRejectsWeightBeyondHeld(t *testing.T) {
	company := &models.Company{
		ID:           uuid.New(),
		Name:         "Akera Gold",
		RemainWeight: decimal.NewFromInt(40),
	}
	svc, _, _, _ := newTestService(t, company)

	sell, err := svc.Create(context.Background(), CreateInput{
		CompanyID: company.ID,
		Weight:    decimal.NewFromInt(30),
		Unit:      enums.WeightUnitGram,
		Rate:      decimal.NewFromInt(2000),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// held weight is 10 now, growing the sale by 20 must fail
	newWeight := decimal.NewFromInt(50)
	_, err = svc.Update(context.Background(), UpdateInput{
		CompanyID: company.ID,
		SellID:    sell.ID,
		Weight:    &newWeight,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}
	if !sell.WeightGrams.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("sale mutated on rejected update: %s", sell.WeightGrams)
	}
}

func TestService_SoftDeleteReversesBalances(t *testing.T) {
	company := &models.Company{
		ID:           uuid.New(),
		Name:         "Akera Gold",
		RemainWeight: decimal.NewFromInt(100),
	}
	svc, repo, _, ob := newTestService(t, company)

	sell, err := svc.Create(context.Background(), CreateInput{
		CompanyID: company.ID,
		Weight:    decimal.RequireFromString("31.1035"),
		Unit:      enums.WeightUnitGram,
		Rate:      decimal.NewFromInt(2000),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	managerID := uuid.New()
	err = svc.SoftDelete(context.Background(), DeleteInput{
		CompanyID: company.ID,
		ManagerID: managerID,
		SellID:    sell.ID,
	})
	if err != nil {
		t.Fatalf("SoftDelete error: %v", err)
	}

	if !company.RemainWeight.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("remain weight %s, want 100", company.RemainWeight)
	}
	if !company.UsdBalance.IsZero() {
		t.Fatalf("usd balance %s, want 0", company.UsdBalance)
	}
	stored := repo.sells[sell.ID]
	if !stored.IsDeleted() || stored.DeletedBy == nil || *stored.DeletedBy != managerID {
		t.Fatal("expected tombstone with deleting manager")
	}
	if ob.events[len(ob.events)-1].EventType != enums.EventSellDeleted {
		t.Fatal("expected sell_deleted event")
	}

	// a tombstoned sale cannot be deleted twice
	err = svc.SoftDelete(context.Background(), DeleteInput{
		CompanyID: company.ID,
		ManagerID: managerID,
		SellID:    sell.ID,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}
