package shipping

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
	shipments    map[uuid.UUID]*models.ShippingOperation
	buyOps       map[uuid.UUID]*models.BuyOperation
	goldMoves    []enums.GoldSituation
	statusWrites map[uuid.UUID]enums.BuyOperationStatus
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, shipment *models.ShippingOperation) error {
	if shipment.ID == uuid.Nil {
		shipment.ID = uuid.New()
	}
	f.shipments[shipment.ID] = shipment
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.ShippingOperation, error) {
	s, ok := f.shipments[id]
	if !ok || s.CompanyID != companyID {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeRepository) FindBuyOperation(ctx context.Context, id uuid.UUID) (*models.BuyOperation, error) {
	op, ok := f.buyOps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return op, nil
}

func (f *fakeRepository) List(ctx context.Context, opts listQuery) ([]models.ShippingOperation, error) {
	return nil, nil
}

func (f *fakeRepository) Save(ctx context.Context, shipment *models.ShippingOperation) error {
	f.shipments[shipment.ID] = shipment
	return nil
}

func (f *fakeRepository) SetBuyOperationStatus(ctx context.Context, opID uuid.UUID, status enums.BuyOperationStatus) error {
	f.statusWrites[opID] = status
	if op, ok := f.buyOps[opID]; ok {
		op.Status = status
	}
	return nil
}

func (f *fakeRepository) SetGoldSituation(ctx context.Context, opID uuid.UUID, situation enums.GoldSituation) error {
	f.goldMoves = append(f.goldMoves, situation)
	return nil
}

type fakeLedger struct {
	company *models.Company
	deltas  []ledger.CompanyDelta
}

func (f *fakeLedger) WithTx(tx *gorm.DB) ledger.Repository { return f }

func (f *fakeLedger) FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	if f.company == nil || f.company.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.company, nil
}

func (f *fakeLedger) AdjustCompany(ctx context.Context, id uuid.UUID, delta ledger.CompanyDelta) error {
	f.deltas = append(f.deltas, delta)
	f.company.CashBalance = f.company.CashBalance.Add(delta.Cash)
	f.company.RemainWeight = f.company.RemainWeight.Add(delta.RemainWeight)
	f.company.TotalWeightExpedited = f.company.TotalWeightExpedited.Add(delta.WeightExpedited)
	f.company.UsdBalance = f.company.UsdBalance.Add(delta.Usd)
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
	repo := &fakeRepository{
		shipments:    map[uuid.UUID]*models.ShippingOperation{},
		buyOps:       map[uuid.UUID]*models.BuyOperation{},
		statusWrites: map[uuid.UUID]enums.BuyOperationStatus{},
	}
	led := &fakeLedger{company: company}
	ob := &fakeOutbox{}
	svc, err := NewService(repo, led, fakeTxRunner{}, ob, decimal.NewFromInt(150))
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, repo, led, ob
}

func pendingBuyOp(companyID uuid.UUID, weights ...int64) *models.BuyOperation {
	op := &models.BuyOperation{
		ID:        uuid.New(),
		CompanyID: companyID,
		PartnerID: uuid.New(),
		Status:    enums.BuyOperationStatusPending,
	}
	for _, w := range weights {
		op.Golds = append(op.Golds, models.GoldItem{
			Weight:    decimal.NewFromInt(w),
			Situation: enums.GoldSituationInStock,
		})
	}
	return op
}

func TestService_CreateComputesWeightAndFees(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", CashBalance: decimal.NewFromInt(100000)}
	svc, repo, _, ob := newTestService(t, company)
	op := pendingBuyOp(company.ID, 100, 50)
	repo.buyOps[op.ID] = op

	shipment, err := svc.Create(context.Background(), CreateInput{
		CompanyID:      company.ID,
		ManagerID:      uuid.New(),
		BuyOperationID: op.ID,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if !shipment.TotalWeight.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("total weight %s, want 150", shipment.TotalWeight)
	}
	if !shipment.TotalFees.Equal(decimal.NewFromInt(22500)) {
		t.Fatalf("total fees %s, want 22500", shipment.TotalFees)
	}
	if shipment.Status != enums.ShippingStatusInProgress {
		t.Fatalf("expected in progress, got %s", shipment.Status)
	}
	if repo.statusWrites[op.ID] != enums.BuyOperationStatusShipped {
		t.Fatal("expected buy operation flipped to shipped")
	}
	if !company.RemainWeight.Equal(decimal.NewFromInt(150)) ||
		!company.TotalWeightExpedited.Equal(decimal.NewFromInt(150)) ||
		!company.CashBalance.Equal(decimal.NewFromInt(77500)) {
		t.Fatalf("wrong company balances: %s / %s / %s",
			company.RemainWeight, company.TotalWeightExpedited, company.CashBalance)
	}
	if len(repo.goldMoves) != 1 || repo.goldMoves[0] != enums.GoldSituationExported {
		t.Fatal("expected gold marked exported")
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventShipmentCreated {
		t.Fatalf("expected shipment_created event, got %+v", ob.events)
	}
}

func TestService_CreateGuards(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold"}
	svc, repo, _, _ := newTestService(t, company)

	shipped := pendingBuyOp(company.ID, 10)
	shipped.Status = enums.BuyOperationStatusShipped
	repo.buyOps[shipped.ID] = shipped

	foreign := pendingBuyOp(uuid.New(), 10)
	repo.buyOps[foreign.ID] = foreign

	tests := []struct {
		name string
		opID uuid.UUID
		code pkgerrors.Code
	}{
		{name: "not pending", opID: shipped.ID, code: pkgerrors.CodeStateConflict},
		{name: "cross company", opID: foreign.ID, code: pkgerrors.CodeUnauthorized},
		{name: "missing", opID: uuid.New(), code: pkgerrors.CodeNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateInput{
				CompanyID:      company.ID,
				BuyOperationID: tc.opID,
			})
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestService_CancelRestoresBalancesExactly(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", CashBalance: decimal.NewFromInt(100000)}
	svc, repo, _, ob := newTestService(t, company)
	op := pendingBuyOp(company.ID, 100, 50)
	repo.buyOps[op.ID] = op

	preCash := company.CashBalance
	preWeight := company.RemainWeight

	shipment, err := svc.Create(context.Background(), CreateInput{
		CompanyID:      company.ID,
		BuyOperationID: op.ID,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	err = svc.Cancel(context.Background(), CancelInput{
		CompanyID:  company.ID,
		ShipmentID: shipment.ID,
	})
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	if !company.CashBalance.Equal(preCash) {
		t.Fatalf("cash balance %s, want %s", company.CashBalance, preCash)
	}
	if !company.RemainWeight.Equal(preWeight) {
		t.Fatalf("remain weight %s, want %s", company.RemainWeight, preWeight)
	}
	if !company.TotalWeightExpedited.IsZero() {
		t.Fatalf("expedited weight %s, want 0", company.TotalWeightExpedited)
	}
	if shipment.Status != enums.ShippingStatusCanceled || shipment.CanceledAt == nil {
		t.Fatal("expected canceled shipment with timestamp")
	}
	if repo.statusWrites[op.ID] != enums.BuyOperationStatusOnHold {
		t.Fatal("expected buy operation parked on hold")
	}
	if ob.events[len(ob.events)-1].EventType != enums.EventShipmentCanceled {
		t.Fatal("expected shipment_canceled event")
	}

	err = svc.Cancel(context.Background(), CancelInput{CompanyID: company.ID, ShipmentID: shipment.ID})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double cancel, got %v", err)
	}
}

func TestService_CancelRejectsWhenWeightAlreadyConsumed(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold", CashBalance: decimal.NewFromInt(100000)}
	svc, repo, _, _ := newTestService(t, company)
	op := pendingBuyOp(company.ID, 100)
	repo.buyOps[op.ID] = op

	shipment, err := svc.Create(context.Background(), CreateInput{CompanyID: company.ID, BuyOperationID: op.ID})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// a sell burned most of the remaining weight in the meantime
	company.RemainWeight = decimal.NewFromInt(40)

	err = svc.Cancel(context.Background(), CancelInput{CompanyID: company.ID, ShipmentID: shipment.ID})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestService_UpdateStatusFollowsTransitionTable(t *testing.T) {
	company := &models.Company{ID: uuid.New(), Name: "Akera Gold"}
	svc, repo, _, _ := newTestService(t, company)

	shipment := &models.ShippingOperation{
		ID:             uuid.New(),
		CompanyID:      company.ID,
		BuyOperationID: uuid.New(),
		TotalWeight:    decimal.NewFromInt(10),
		TransportRate:  decimal.NewFromInt(150),
		TotalFees:      decimal.NewFromInt(1500),
		Status:         enums.ShippingStatusInProgress,
	}
	repo.shipments[shipment.ID] = shipment

	// in progress -> delivered skips shipped and must be rejected
	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		CompanyID:  company.ID,
		ShipmentID: shipment.ID,
		Status:     enums.ShippingStatusDelivered,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	for _, next := range []enums.ShippingStatus{enums.ShippingStatusShipped, enums.ShippingStatusDelivered} {
		if _, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
			CompanyID:  company.ID,
			ShipmentID: shipment.ID,
			Status:     next,
		}); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	if repo.statusWrites[shipment.BuyOperationID] != enums.BuyOperationStatusCompleted {
		t.Fatal("expected buy operation completed on delivery")
	}

	// delivered is terminal
	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		CompanyID:  company.ID,
		ShipmentID: shipment.ID,
		Status:     enums.ShippingStatusOnHold,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected terminal state conflict, got %v", err)
	}
}
