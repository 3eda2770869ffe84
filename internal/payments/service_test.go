package payments

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
	payments map[uuid.UUID]*models.Payment
	ops      map[uuid.UUID]*models.BuyOperation
	order    []uuid.UUID
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	f.payments[payment.ID] = payment
	f.order = append(f.order, payment.ID)
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.Payment, error) {
	p, ok := f.payments[id]
	if !ok || p.CompanyID != companyID {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeRepository) FindBuyOperation(ctx context.Context, companyID, id uuid.UUID) (*models.BuyOperation, error) {
	op, ok := f.ops[id]
	if !ok || op.CompanyID != companyID {
		return nil, gorm.ErrRecordNotFound
	}
	return op, nil
}

func (f *fakeRepository) LastForOperation(ctx context.Context, opID uuid.UUID) (*models.Payment, error) {
	for i := len(f.order) - 1; i >= 0; i-- {
		p, ok := f.payments[f.order[i]]
		if ok && p.OperationID == opID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) List(ctx context.Context, opts listQuery) ([]models.Payment, error) {
	return nil, nil
}

func (f *fakeRepository) SaveBuyOperation(ctx context.Context, op *models.BuyOperation) error {
	f.ops[op.ID] = op
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, payment *models.Payment) error {
	delete(f.payments, payment.ID)
	return nil
}

type fakeLedger struct {
	company       *models.Company
	partnerDeltas map[uuid.UUID]decimal.Decimal
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
	f.partnerDeltas[partnerID] = f.partnerDeltas[partnerID].Add(delta)
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
	repo := &fakeRepository{
		payments: map[uuid.UUID]*models.Payment{},
		ops:      map[uuid.UUID]*models.BuyOperation{},
	}
	led := &fakeLedger{company: company, partnerDeltas: map[uuid.UUID]decimal.Decimal{}}
	ob := &fakeOutbox{}
	svc, err := NewService(repo, led, fakeTxRunner{}, ob)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, repo, led, ob
}

func TestService_PartialThenFullSettlement(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", CashBalance: decimal.NewFromInt(5000)}
	svc, repo, led, ob := newTestService(t, company)
	partnerID := uuid.New()
	op := &models.BuyOperation{
		ID:            uuid.New(),
		CompanyID:     company.ID,
		PartnerID:     partnerID,
		Currency:      enums.CurrencyFCFA,
		Amount:        decimal.NewFromInt(1000),
		PaymentStatus: enums.PaymentStatusPending,
		Status:        enums.BuyOperationStatusPending,
	}
	repo.ops[op.ID] = op

	first, err := svc.Create(context.Background(), CreateInput{
		CompanyID:   company.ID,
		ManagerID:   uuid.New(),
		OperationID: op.ID,
		Amount:      decimal.NewFromInt(400),
	})
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if op.PaymentStatus != enums.PaymentStatusPartiallyPaid {
		t.Fatalf("expected partially paid, got %s", op.PaymentStatus)
	}
	if !first.Remain.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("remain %s, want 600", first.Remain)
	}
	if first.Method != enums.PaymentMethodCash {
		t.Fatalf("expected cash default, got %s", first.Method)
	}

	second, err := svc.Create(context.Background(), CreateInput{
		CompanyID:   company.ID,
		OperationID: op.ID,
		Amount:      decimal.NewFromInt(600),
	})
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if op.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", op.PaymentStatus)
	}
	if !second.Remain.IsZero() {
		t.Fatalf("remain %s, want 0", second.Remain)
	}

	if !company.CashBalance.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("company cash %s, want 4000", company.CashBalance)
	}
	if !led.partnerDeltas[partnerID].Equal(decimal.NewFromInt(-1000)) {
		t.Fatalf("partner delta %s, want -1000", led.partnerDeltas[partnerID])
	}
	if len(ob.events) != 2 || ob.events[0].EventType != enums.EventPaymentRecorded {
		t.Fatalf("expected two payment_recorded events, got %+v", ob.events)
	}
}

func TestService_CreateAfterNonLatestCancelUsesOperationRemaining(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", CashBalance: decimal.NewFromInt(5000)}
	svc, repo, _, _ := newTestService(t, company)
	op := &models.BuyOperation{
		ID:            uuid.New(),
		CompanyID:     company.ID,
		PartnerID:     uuid.New(),
		Currency:      enums.CurrencyFCFA,
		Amount:        decimal.NewFromInt(1000),
		PaymentStatus: enums.PaymentStatusPending,
		Status:        enums.BuyOperationStatusPending,
	}
	repo.ops[op.ID] = op

	first, err := svc.Create(context.Background(), CreateInput{
		CompanyID:   company.ID,
		OperationID: op.ID,
		Amount:      decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{
		CompanyID:   company.ID,
		OperationID: op.ID,
		Amount:      decimal.NewFromInt(200),
	}); err != nil {
		t.Fatalf("second payment: %v", err)
	}

	// reverse the earlier payment; the later payment's stored remain of 500
	// is now stale-low
	if err := svc.Cancel(context.Background(), CancelInput{
		CompanyID: company.ID,
		PaymentID: first.ID,
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !op.RemainingAmount().Equal(decimal.NewFromInt(800)) {
		t.Fatalf("operation remaining %s, want 800", op.RemainingAmount())
	}

	settled, err := svc.Create(context.Background(), CreateInput{
		CompanyID:   company.ID,
		OperationID: op.ID,
		Amount:      decimal.NewFromInt(800),
	})
	if err != nil {
		t.Fatalf("settling payment after cancel: %v", err)
	}
	if !settled.Remain.IsZero() {
		t.Fatalf("remain %s, want 0", settled.Remain)
	}
	if op.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", op.PaymentStatus)
	}
}

func TestService_CreateRejections(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", CashBalance: decimal.NewFromInt(300)}
	svc, repo, _, _ := newTestService(t, company)
	op := &models.BuyOperation{
		ID:        uuid.New(),
		CompanyID: company.ID,
		PartnerID: uuid.New(),
		Amount:    decimal.NewFromInt(1000),
		Status:    enums.BuyOperationStatusPending,
	}
	repo.ops[op.ID] = op

	tests := []struct {
		name   string
		amount decimal.Decimal
		code   pkgerrors.Code
	}{
		{name: "zero amount", amount: decimal.Zero, code: pkgerrors.CodeValidation},
		{name: "negative amount", amount: decimal.NewFromInt(-5), code: pkgerrors.CodeValidation},
		{name: "exceeds remaining", amount: decimal.NewFromInt(1200), code: pkgerrors.CodeBusinessRule},
		{name: "insufficient company cash", amount: decimal.NewFromInt(500), code: pkgerrors.CodeInsufficientFunds},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateInput{
				CompanyID:   company.ID,
				OperationID: op.ID,
				Amount:      tc.amount,
			})
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}

	if !op.AmountPaid.IsZero() || !company.CashBalance.Equal(decimal.NewFromInt(300)) {
		t.Fatal("rejected payments must not move balances")
	}
}

func TestService_CancelReversesEverything(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", CashBalance: decimal.NewFromInt(5000)}
	svc, repo, led, ob := newTestService(t, company)
	partnerID := uuid.New()
	op := &models.BuyOperation{
		ID:        uuid.New(),
		CompanyID: company.ID,
		PartnerID: partnerID,
		Amount:    decimal.NewFromInt(1000),
		Status:    enums.BuyOperationStatusPending,
	}
	repo.ops[op.ID] = op

	payment, err := svc.Create(context.Background(), CreateInput{
		CompanyID:   company.ID,
		OperationID: op.ID,
		Amount:      decimal.NewFromInt(400),
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	err = svc.Cancel(context.Background(), CancelInput{
		CompanyID: company.ID,
		ManagerID: uuid.New(),
		PaymentID: payment.ID,
	})
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	if !company.CashBalance.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("company cash %s, want 5000", company.CashBalance)
	}
	if !led.partnerDeltas[partnerID].IsZero() {
		t.Fatalf("partner delta %s, want 0", led.partnerDeltas[partnerID])
	}
	if !op.AmountPaid.IsZero() || op.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("operation not reset: paid=%s status=%s", op.AmountPaid, op.PaymentStatus)
	}
	if _, ok := repo.payments[payment.ID]; ok {
		t.Fatal("expected payment record deleted")
	}
	if ob.events[len(ob.events)-1].EventType != enums.EventPaymentCanceled {
		t.Fatal("expected payment_canceled event")
	}
}
