package exchanges

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
	customers map[uuid.UUID]*models.UsdCustomer
	exchanges map[uuid.UUID]*models.DollarExchange
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateCustomer(ctx context.Context, customer *models.UsdCustomer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeRepository) FindCustomerByID(ctx context.Context, companyID, id uuid.UUID) (*models.UsdCustomer, error) {
	c, ok := f.customers[id]
	if !ok || c.CompanyID != companyID {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeRepository) ListCustomers(ctx context.Context, opts customerListQuery) ([]models.UsdCustomer, error) {
	return nil, nil
}

func (f *fakeRepository) UpdateCustomerVersioned(ctx context.Context, customer *models.UsdCustomer) error {
	stored, ok := f.customers[customer.ID]
	if !ok || stored.Version != customer.Version {
		return ErrStaleVersion
	}
	customer.Version++
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeRepository) CreateExchange(ctx context.Context, exchange *models.DollarExchange) error {
	if exchange.ID == uuid.Nil {
		exchange.ID = uuid.New()
	}
	f.exchanges[exchange.ID] = exchange
	return nil
}

func (f *fakeRepository) FindExchangeByID(ctx context.Context, companyID, id uuid.UUID) (*models.DollarExchange, error) {
	e, ok := f.exchanges[id]
	if !ok || e.CompanyID != companyID {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (f *fakeRepository) ListExchanges(ctx context.Context, opts exchangeListQuery) ([]models.DollarExchange, error) {
	return nil, nil
}

func (f *fakeRepository) UpdateExchangeVersioned(ctx context.Context, exchange *models.DollarExchange) error {
	stored, ok := f.exchanges[exchange.ID]
	if !ok || stored.Version != exchange.Version {
		return ErrStaleVersion
	}
	exchange.Version++
	f.exchanges[exchange.ID] = exchange
	return nil
}

func (f *fakeRepository) ArchiveCustomerExchanges(ctx context.Context, customerID uuid.UUID, reason string) error {
	for _, e := range f.exchanges {
		if e.UsdCustomerID != customerID || e.DeletedAt != nil || e.Status == enums.ExchangeStatusArchived {
			continue
		}
		previous := e.Status
		e.PreviousStatus = &previous
		e.Status = enums.ExchangeStatusArchived
		r := reason
		e.ArchivedReason = &r
		e.Version++
	}
	return nil
}

func (f *fakeRepository) RestoreCustomerExchanges(ctx context.Context, customerID uuid.UUID, reason string) error {
	for _, e := range f.exchanges {
		if e.UsdCustomerID != customerID || e.DeletedAt != nil || e.Status != enums.ExchangeStatusArchived {
			continue
		}
		if e.ArchivedReason == nil || *e.ArchivedReason != reason {
			continue
		}
		if e.PreviousStatus != nil {
			e.Status = *e.PreviousStatus
		}
		e.PreviousStatus = nil
		e.ArchivedAt = nil
		e.ArchivedReason = nil
		e.Version++
	}
	return nil
}

type fakeLedger struct {
	company   *models.Company
	customers map[uuid.UUID]*models.UsdCustomer
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
	c, ok := f.customers[customerID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.ToPaid = c.ToPaid.Add(delta)
	c.Version++
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
	repo := &fakeRepository{
		customers: map[uuid.UUID]*models.UsdCustomer{},
		exchanges: map[uuid.UUID]*models.DollarExchange{},
	}
	led := &fakeLedger{company: company, customers: repo.customers}
	ob := &fakeOutbox{}
	svc, err := NewService(repo, led, fakeTxRunner{}, ob)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, repo, led, ob
}

func seedCustomer(repo *fakeRepository, companyID uuid.UUID) *models.UsdCustomer {
	customer := &models.UsdCustomer{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      "Mamadou Diallo",
		Status:    enums.CustomerStatusActive,
		Version:   1,
	}
	repo.customers[customer.ID] = customer
	return customer
}

func TestService_CreateExchangeChargesCustomer(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", UsdBalance: decimal.NewFromInt(10000)}
	svc, repo, _, ob := newTestService(t, company)
	customer := seedCustomer(repo, company.ID)

	exchange, err := svc.CreateExchange(context.Background(), CreateExchangeInput{
		CompanyID:  company.ID,
		ManagerID:  uuid.New(),
		CustomerID: customer.ID,
		Rate:       decimal.NewFromInt(600),
		AmountUSD:  decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("CreateExchange error: %v", err)
	}

	if !exchange.AmountCFA.Equal(decimal.NewFromInt(600000)) {
		t.Fatalf("amount cfa %s, want 600000", exchange.AmountCFA)
	}
	if exchange.Status != enums.ExchangeStatusPending {
		t.Fatalf("status %s, want pending", exchange.Status)
	}
	if !company.UsdBalance.Equal(decimal.NewFromInt(9000)) {
		t.Fatalf("usd balance %s, want 9000", company.UsdBalance)
	}
	if !customer.ToPaid.Equal(decimal.NewFromInt(600000)) {
		t.Fatalf("to paid %s, want 600000", customer.ToPaid)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventExchangeCreated {
		t.Fatalf("expected exchange_created event, got %+v", ob.events)
	}
}

func TestService_CreateExchangeRejectsInsufficientUsd(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", UsdBalance: decimal.NewFromInt(500)}
	svc, repo, _, _ := newTestService(t, company)
	customer := seedCustomer(repo, company.ID)

	_, err := svc.CreateExchange(context.Background(), CreateExchangeInput{
		CompanyID:  company.ID,
		CustomerID: customer.ID,
		Rate:       decimal.NewFromInt(600),
		AmountUSD:  decimal.NewFromInt(1000),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}
	if !company.UsdBalance.Equal(decimal.NewFromInt(500)) || !customer.ToPaid.IsZero() {
		t.Fatal("rejected exchange must not move balances")
	}
}

func TestService_UpdateExchangeReassignsCustomer(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", UsdBalance: decimal.NewFromInt(10000)}
	svc, repo, _, _ := newTestService(t, company)
	first := seedCustomer(repo, company.ID)
	second := seedCustomer(repo, company.ID)

	exchange, err := svc.CreateExchange(context.Background(), CreateExchangeInput{
		CompanyID:  company.ID,
		CustomerID: first.ID,
		Rate:       decimal.NewFromInt(600),
		AmountUSD:  decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("CreateExchange error: %v", err)
	}

	newUSD := decimal.NewFromInt(2000)
	updated, err := svc.UpdateExchange(context.Background(), UpdateExchangeInput{
		CompanyID:  company.ID,
		ExchangeID: exchange.ID,
		Version:    exchange.Version,
		CustomerID: &second.ID,
		AmountUSD:  &newUSD,
	})
	if err != nil {
		t.Fatalf("UpdateExchange error: %v", err)
	}

	if !first.ToPaid.IsZero() {
		t.Fatalf("old customer to paid %s, want 0", first.ToPaid)
	}
	if !second.ToPaid.Equal(decimal.NewFromInt(1200000)) {
		t.Fatalf("new customer to paid %s, want 1200000", second.ToPaid)
	}
	// only the extra 1000 USD left the company
	if !company.UsdBalance.Equal(decimal.NewFromInt(8000)) {
		t.Fatalf("usd balance %s, want 8000", company.UsdBalance)
	}
	if updated.Version != 2 {
		t.Fatalf("version %d, want 2", updated.Version)
	}
}

func TestService_UpdateExchangeRejectsStaleVersion(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", UsdBalance: decimal.NewFromInt(10000)}
	svc, repo, _, _ := newTestService(t, company)
	customer := seedCustomer(repo, company.ID)

	exchange, err := svc.CreateExchange(context.Background(), CreateExchangeInput{
		CompanyID:  company.ID,
		CustomerID: customer.ID,
		Rate:       decimal.NewFromInt(600),
		AmountUSD:  decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("CreateExchange error: %v", err)
	}

	rate := decimal.NewFromInt(650)
	_, err = svc.UpdateExchange(context.Background(), UpdateExchangeInput{
		CompanyID:  company.ID,
		ExchangeID: exchange.ID,
		Version:    exchange.Version + 1,
		Rate:       &rate,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStaleVersion {
		t.Fatalf("expected STALE_VERSION, got %v", err)
	}
}

func TestService_DeleteAndRestoreExchange(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", UsdBalance: decimal.NewFromInt(10000)}
	svc, repo, _, ob := newTestService(t, company)
	customer := seedCustomer(repo, company.ID)

	exchange, err := svc.CreateExchange(context.Background(), CreateExchangeInput{
		CompanyID:  company.ID,
		CustomerID: customer.ID,
		Rate:       decimal.NewFromInt(600),
		AmountUSD:  decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("CreateExchange error: %v", err)
	}

	err = svc.SoftDeleteExchange(context.Background(), DeleteExchangeInput{
		CompanyID:  company.ID,
		ManagerID:  uuid.New(),
		ExchangeID: exchange.ID,
		Version:    exchange.Version,
	})
	if err != nil {
		t.Fatalf("SoftDeleteExchange error: %v", err)
	}
	if !company.UsdBalance.Equal(decimal.NewFromInt(10000)) || !customer.ToPaid.IsZero() {
		t.Fatal("delete must reverse both legs")
	}
	if !exchange.IsDeleted() || exchange.Status != enums.ExchangeStatusArchived {
		t.Fatalf("expected archived tombstone, got status %s", exchange.Status)
	}

	restored, err := svc.RestoreExchange(context.Background(), RestoreExchangeInput{
		CompanyID:  company.ID,
		ExchangeID: exchange.ID,
		Version:    exchange.Version,
	})
	if err != nil {
		t.Fatalf("RestoreExchange error: %v", err)
	}
	if restored.Status != enums.ExchangeStatusPending || restored.IsDeleted() {
		t.Fatalf("expected pending restored exchange, got %s", restored.Status)
	}
	if !company.UsdBalance.Equal(decimal.NewFromInt(9000)) {
		t.Fatalf("usd balance %s, want 9000", company.UsdBalance)
	}
	if !customer.ToPaid.Equal(decimal.NewFromInt(600000)) {
		t.Fatalf("to paid %s, want 600000", customer.ToPaid)
	}
	if ob.events[len(ob.events)-1].EventType != enums.EventExchangeRestored {
		t.Fatal("expected exchange_restored event")
	}
}

func TestService_RestoreExchangeRequiresCoverage(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", UsdBalance: decimal.NewFromInt(1000)}
	svc, repo, _, _ := newTestService(t, company)
	customer := seedCustomer(repo, company.ID)

	exchange, err := svc.CreateExchange(context.Background(), CreateExchangeInput{
		CompanyID:  company.ID,
		CustomerID: customer.ID,
		Rate:       decimal.NewFromInt(600),
		AmountUSD:  decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("CreateExchange error: %v", err)
	}

	err = svc.SoftDeleteExchange(context.Background(), DeleteExchangeInput{
		CompanyID:  company.ID,
		ExchangeID: exchange.ID,
		Version:    exchange.Version,
	})
	if err != nil {
		t.Fatalf("SoftDeleteExchange error: %v", err)
	}

	// the refunded USD was spent elsewhere in the meantime
	company.UsdBalance = decimal.NewFromInt(200)
	_, err = svc.RestoreExchange(context.Background(), RestoreExchangeInput{
		CompanyID:  company.ID,
		ExchangeID: exchange.ID,
		Version:    exchange.Version,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}
	if !exchange.IsDeleted() {
		t.Fatal("failed restore must leave the tombstone in place")
	}
}

func TestService_CustomerDeleteCascadesAndRestores(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", UsdBalance: decimal.NewFromInt(10000)}
	svc, repo, _, ob := newTestService(t, company)
	customer := seedCustomer(repo, company.ID)

	exchange, err := svc.CreateExchange(context.Background(), CreateExchangeInput{
		CompanyID:  company.ID,
		CustomerID: customer.ID,
		Rate:       decimal.NewFromInt(600),
		AmountUSD:  decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("CreateExchange error: %v", err)
	}

	// creation bumped the customer's version through the ledger charge
	err = svc.SoftDeleteCustomer(context.Background(), DeleteCustomerInput{
		CompanyID:  company.ID,
		ManagerID:  uuid.New(),
		CustomerID: customer.ID,
		Version:    customer.Version,
	})
	if err != nil {
		t.Fatalf("SoftDeleteCustomer error: %v", err)
	}

	if !customer.IsDeleted() || customer.Status != enums.CustomerStatusInactive {
		t.Fatal("expected inactive tombstoned customer")
	}
	if exchange.Status != enums.ExchangeStatusArchived || exchange.PreviousStatus == nil || *exchange.PreviousStatus != enums.ExchangeStatusPending {
		t.Fatalf("expected archived exchange with captured status, got %s", exchange.Status)
	}
	// the cascade parks rows without reversing their ledger effect
	if !customer.ToPaid.Equal(decimal.NewFromInt(600000)) || !company.UsdBalance.Equal(decimal.NewFromInt(9000)) {
		t.Fatal("customer delete must not move balances")
	}

	versionAfterDelete := customer.Version
	restored, err := svc.RestoreCustomer(context.Background(), RestoreCustomerInput{
		CompanyID:  company.ID,
		CustomerID: customer.ID,
		Version:    versionAfterDelete,
	})
	if err != nil {
		t.Fatalf("RestoreCustomer error: %v", err)
	}

	if restored.IsDeleted() || restored.Status != enums.CustomerStatusActive {
		t.Fatal("expected active restored customer")
	}
	if restored.Version != versionAfterDelete+1 {
		t.Fatalf("version %d, want %d", restored.Version, versionAfterDelete+1)
	}
	if exchange.Status != enums.ExchangeStatusPending || exchange.ArchivedReason != nil {
		t.Fatalf("expected exchange back to pending, got %s", exchange.Status)
	}
	if !customer.ToPaid.Equal(decimal.NewFromInt(600000)) || !company.UsdBalance.Equal(decimal.NewFromInt(9000)) {
		t.Fatal("customer restore must not move balances")
	}
	if ob.events[len(ob.events)-1].EventType != enums.EventCustomerRestored {
		t.Fatal("expected customer_restored event")
	}
}

func TestService_CustomerDeleteRejectsStaleVersion(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold"}
	svc, repo, _, _ := newTestService(t, company)
	customer := seedCustomer(repo, company.ID)

	err := svc.SoftDeleteCustomer(context.Background(), DeleteCustomerInput{
		CompanyID:  company.ID,
		CustomerID: customer.ID,
		Version:    customer.Version + 5,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStaleVersion {
		t.Fatalf("expected STALE_VERSION, got %v", err)
	}
	if customer.IsDeleted() {
		t.Fatal("stale delete must not tombstone the customer")
	}
}
