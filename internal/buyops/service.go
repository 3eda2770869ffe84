package buyops

import (
	"context"
	"errors"
	"fmt"

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

// Service defines the buy operation lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.BuyOperation, error)
	Get(ctx context.Context, companyID, opID uuid.UUID) (*models.BuyOperation, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, input UpdateInput) (*models.BuyOperation, error)
	Delete(ctx context.Context, input DeleteInput) error
}

type service struct {
	repo   Repository
	ledger ledger.Repository
	tx     txRunner
	outbox outboxPublisher
}

// GoldLineInput is one weighed lot of raw gold presented at purchase.
type GoldLineInput struct {
	Base         string
	Weight       decimal.Decimal
	WaterWeight  decimal.Decimal
	PricePerGram decimal.Decimal
}

// CreateInput carries everything needed to record a purchase.
type CreateInput struct {
	CompanyID uuid.UUID
	ManagerID uuid.UUID
	PartnerID uuid.UUID
	Currency  enums.Currency
	Golds     []GoldLineInput
}

// UpdateInput re-weighs an operation. When Golds is nil the lines are kept;
// when Currency is empty the stored currency keeps choosing the divisor.
type UpdateInput struct {
	CompanyID uuid.UUID
	ManagerID uuid.UUID
	OpID      uuid.UUID
	Currency  enums.Currency
	Golds     []GoldLineInput
}

// DeleteInput removes an operation and reverses its partner credit.
type DeleteInput struct {
	CompanyID uuid.UUID
	ManagerID uuid.UUID
	OpID      uuid.UUID
}

// ListParams pages through a company's buy operations.
type ListParams struct {
	CompanyID uuid.UUID
	pkgpagination.Params
}

// ListResult is one page of buy operations plus the next cursor.
type ListResult struct {
	Items  []models.BuyOperation `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService builds a buy operation service with the required dependencies.
func NewService(repo Repository, ledgerRepo ledger.Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("buy operations repository required")
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
	return &service{repo: repo, ledger: ledgerRepo, tx: tx, outbox: outboxSvc}, nil
}

// valuateLines turns raw line inputs into persisted gold items and the
// operation amount. A single bad line rejects the whole batch.
func valuateLines(currency enums.Currency, lines []GoldLineInput) ([]models.GoldItem, decimal.Decimal, error) {
	items := make([]models.GoldItem, 0, len(lines))
	amount := decimal.Zero
	for i, line := range lines {
		if !line.Weight.GreaterThan(decimal.Zero) {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("gold line %d: weight must be positive", i))
		}
		if !line.WaterWeight.GreaterThan(decimal.Zero) {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("gold line %d: water weight must be positive", i))
		}
		if !line.PricePerGram.GreaterThan(decimal.Zero) {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("gold line %d: price per gram must be positive", i))
		}

		density, err := gold.Density(line.Weight, line.WaterWeight)
		if err != nil {
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("gold line %d", i))
		}
		karat := gold.DensityToKarat(density)
		if !gold.IsValidKarat(karat) {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("gold line %d: density %s maps to no valid karat", i, density))
		}

		value := gold.Valuate(karat, line.Weight, line.PricePerGram, currency)
		items = append(items, models.GoldItem{
			Base:         line.Base,
			Weight:       line.Weight,
			WaterWeight:  line.WaterWeight,
			Density:      density,
			Karat:        karat,
			PricePerGram: line.PricePerGram,
			Value:        value,
			Situation:    enums.GoldSituationInStock,
		})
		amount = amount.Add(value)
	}
	return items, amount, nil
}

func goldLinesFromItems(items []models.GoldItem) []GoldLineInput {
	lines := make([]GoldLineInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, GoldLineInput{
			Base:         item.Base,
			Weight:       item.Weight,
			WaterWeight:  item.WaterWeight,
			PricePerGram: item.PricePerGram,
		})
	}
	return lines
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.BuyOperation, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.PartnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}
	if len(input.Golds) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one gold line required")
	}

	items, amount, err := valuateLines(input.Currency, input.Golds)
	if err != nil {
		return nil, err
	}

	var created *models.BuyOperation
	err = s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		partner, err := repo.FindPartner(ctx, input.CompanyID, input.PartnerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner")
		}
		if partner.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "partner is deleted")
		}

		op := &models.BuyOperation{
			CompanyID:     input.CompanyID,
			PartnerID:     partner.ID,
			Currency:      input.Currency,
			Amount:        amount,
			AmountPaid:    decimal.Zero,
			PaymentStatus: enums.PaymentStatusPending,
			Status:        enums.BuyOperationStatusPending,
			Golds:         items,
		}
		if err := repo.Create(ctx, op); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create buy operation")
		}
		if err := s.ledger.WithTx(tx).AdjustPartnerBalance(ctx, partner.ID, amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit partner balance")
		}

		created = op
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBuyOperationCreated,
			AggregateType: enums.AggregateBuyOperation,
			AggregateID:   op.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          op,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, companyID, opID uuid.UUID) (*models.BuyOperation, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if opID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "operation id required")
	}
	op, err := s.repo.FindByID(ctx, companyID, opID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buy operation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buy operation")
	}
	return op, nil
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buy operations")
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

// Update recomputes the amount and applies only the difference against the
// partner balance, so concurrent settlements against the same partner
// compose correctly.
func (s *service) Update(ctx context.Context, input UpdateInput) (*models.BuyOperation, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.OpID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "operation id required")
	}
	if input.Currency != "" && !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}

	var updated *models.BuyOperation
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		op, err := repo.FindByID(ctx, input.CompanyID, input.OpID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "buy operation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buy operation")
		}
		if op.Status == enums.BuyOperationStatusCanceled || op.Status == enums.BuyOperationStatusArchived {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("buy operation is %s", op.Status))
		}

		currency := input.Currency
		if currency == "" {
			currency = op.Currency
		}

		oldAmount := op.Amount
		switch {
		case len(input.Golds) > 0:
			items, amount, err := valuateLines(currency, input.Golds)
			if err != nil {
				return err
			}
			if err := repo.ReplaceGoldItems(ctx, op.ID, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace gold lines")
			}
			op.Golds = items
			op.Amount = amount
		case currency != op.Currency:
			// the currency picks the valuation divisor, so a currency
			// switch re-prices the stored lines
			items, amount, err := valuateLines(currency, goldLinesFromItems(op.Golds))
			if err != nil {
				return err
			}
			if err := repo.ReplaceGoldItems(ctx, op.ID, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace gold lines")
			}
			op.Golds = items
			op.Amount = amount
		}
		op.Currency = currency

		if op.Amount.LessThan(op.AmountPaid) {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "new amount is below what has already been paid")
		}
		op.PaymentStatus = models.PaymentStatusFor(op.AmountPaid, op.Amount)

		if err := repo.Save(ctx, op); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update buy operation")
		}

		delta := op.Amount.Sub(oldAmount)
		if err := s.ledger.WithTx(tx).AdjustPartnerBalance(ctx, op.PartnerID, delta); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust partner balance")
		}

		updated = op
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBuyOperationUpdated,
			AggregateType: enums.AggregateBuyOperation,
			AggregateID:   op.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          op,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	if input.CompanyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.OpID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "operation id required")
	}

	return s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		op, err := repo.FindByID(ctx, input.CompanyID, input.OpID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "buy operation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buy operation")
		}
		if op.Status == enums.BuyOperationStatusShipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete a shipped buy operation")
		}

		if err := s.ledger.WithTx(tx).AdjustPartnerBalance(ctx, op.PartnerID, op.Amount.Neg()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse partner balance")
		}
		if err := repo.Delete(ctx, op); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete buy operation")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBuyOperationDeleted,
			AggregateType: enums.AggregateBuyOperation,
			AggregateID:   op.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          op,
			Version:       1,
		})
	})
}
