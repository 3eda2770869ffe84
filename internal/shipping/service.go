package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/internal/ledger"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
	"github.com/Bbt3-alx/akera-backend/pkg/gold"
	"github.com/Bbt3-alx/akera-backend/pkg/outbox"
	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

type txRunner interface {
	WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the shipping operation lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.ShippingOperation, error)
	Get(ctx context.Context, companyID, shipmentID uuid.UUID) (*models.ShippingOperation, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.ShippingOperation, error)
	Cancel(ctx context.Context, input CancelInput) error
}

type service struct {
	repo        Repository
	ledger      ledger.Repository
	tx          txRunner
	outbox      outboxPublisher
	defaultRate decimal.Decimal
}

// CreateInput exports one pending buy operation.
type CreateInput struct {
	CompanyID      uuid.UUID
	ManagerID      uuid.UUID
	BuyOperationID uuid.UUID
	TransportRate  *decimal.Decimal
}

// UpdateStatusInput moves a shipment along the transition table.
type UpdateStatusInput struct {
	CompanyID  uuid.UUID
	ManagerID  uuid.UUID
	ShipmentID uuid.UUID
	Status     enums.ShippingStatus
}

// CancelInput reverses a shipment's ledger effect.
type CancelInput struct {
	CompanyID  uuid.UUID
	ManagerID  uuid.UUID
	ShipmentID uuid.UUID
}

// ListParams pages through a company's shipments.
type ListParams struct {
	CompanyID uuid.UUID
	pkgpagination.Params
}

// ListResult is one page of shipments plus the next cursor.
type ListResult struct {
	Items  []models.ShippingOperation `json:"items"`
	Cursor string                     `json:"cursor"`
}

// NewService builds a shipping service. defaultRate is the per-gram export
// fee used when a shipment does not carry its own rate.
func NewService(repo Repository, ledgerRepo ledger.Repository, tx txRunner, outboxSvc outboxPublisher, defaultRate decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if !defaultRate.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("default transport rate must be positive")
	}
	return &service{
		repo:        repo,
		ledger:      ledgerRepo,
		tx:          tx,
		outbox:      outboxSvc,
		defaultRate: defaultRate,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.ShippingOperation, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.BuyOperationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buy operation id required")
	}
	rate := s.defaultRate
	if input.TransportRate != nil {
		rate = *input.TransportRate
	}
	if !rate.GreaterThan(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transport rate must be positive")
	}

	var created *models.ShippingOperation
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		op, err := repo.FindBuyOperation(ctx, input.BuyOperationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "buy operation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buy operation")
		}
		if op.CompanyID != input.CompanyID {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "buy operation belongs to another company")
		}
		if op.Status != enums.BuyOperationStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("buy operation is %s, only pending can ship", op.Status))
		}

		totalWeight := decimal.Zero
		for _, item := range op.Golds {
			totalWeight = totalWeight.Add(item.Weight)
		}
		if !totalWeight.GreaterThan(decimal.Zero) {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "buy operation has no weight to ship")
		}
		totalFees := gold.RoundAmount(totalWeight.Mul(rate))

		shipment := &models.ShippingOperation{
			CompanyID:      input.CompanyID,
			BuyOperationID: op.ID,
			TotalWeight:    totalWeight,
			TransportRate:  rate,
			TotalFees:      totalFees,
			Status:         enums.ShippingStatusInProgress,
		}
		if err := repo.Create(ctx, shipment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment")
		}
		if err := repo.SetBuyOperationStatus(ctx, op.ID, enums.BuyOperationStatusShipped); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark buy operation shipped")
		}
		if err := repo.SetGoldSituation(ctx, op.ID, enums.GoldSituationExported); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark gold exported")
		}
		if err := s.ledger.WithTx(tx).AdjustCompany(ctx, input.CompanyID, ledger.CompanyDelta{
			WeightExpedited: totalWeight,
			RemainWeight:    totalWeight,
			Cash:            totalFees.Neg(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply company deltas")
		}

		created = shipment
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentCreated,
			AggregateType: enums.AggregateShippingOperation,
			AggregateID:   shipment.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          shipment,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, companyID, shipmentID uuid.UUID) (*models.ShippingOperation, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	shipment, err := s.repo.FindByID(ctx, companyID, shipmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		companyID: params.CompanyID,
		limit:     pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	return &ListResult{Items: rows, Cursor: nextCursor}, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.ShippingOperation, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.ShipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid shipping status %q", input.Status))
	}

	var updated *models.ShippingOperation
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindByID(ctx, input.CompanyID, input.ShipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if !shipment.Status.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot transition from %s to %s", shipment.Status, input.Status))
		}

		shipment.Status = input.Status
		if err := repo.Save(ctx, shipment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment status")
		}
		if input.Status == enums.ShippingStatusDelivered {
			if err := repo.SetBuyOperationStatus(ctx, shipment.BuyOperationID, enums.BuyOperationStatusCompleted); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete buy operation")
			}
		}

		updated = shipment
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentStatusChanged,
			AggregateType: enums.AggregateShippingOperation,
			AggregateID:   shipment.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          shipment,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel reverses the three company deltas and parks the buy operation on
// hold so it can be reshipped later.
func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if input.CompanyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.ShipmentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}

	return s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindByID(ctx, input.CompanyID, input.ShipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if shipment.Status == enums.ShippingStatusCanceled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment already canceled")
		}
		if shipment.Status == enums.ShippingStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivered shipment cannot be canceled")
		}

		ledgerRepo := s.ledger.WithTx(tx)
		company, err := ledgerRepo.FindCompany(ctx, input.CompanyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
		}
		if company.RemainWeight.LessThan(shipment.TotalWeight) {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "remaining weight already consumed, cancel would go negative")
		}

		now := time.Now()
		shipment.Status = enums.ShippingStatusCanceled
		shipment.CanceledAt = &now
		if err := repo.Save(ctx, shipment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel shipment")
		}
		if err := repo.SetBuyOperationStatus(ctx, shipment.BuyOperationID, enums.BuyOperationStatusOnHold); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "park buy operation")
		}
		if err := repo.SetGoldSituation(ctx, shipment.BuyOperationID, enums.GoldSituationInStock); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock gold")
		}
		if err := ledgerRepo.AdjustCompany(ctx, input.CompanyID, ledger.CompanyDelta{
			WeightExpedited: shipment.TotalWeight.Neg(),
			RemainWeight:    shipment.TotalWeight.Neg(),
			Cash:            shipment.TotalFees,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse company deltas")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentCanceled,
			AggregateType: enums.AggregateShippingOperation,
			AggregateID:   shipment.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          shipment,
			Version:       1,
		})
	})
}
