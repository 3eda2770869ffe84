package sells

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

// Service liquidates held gold weight for USD at a per-ounce rate.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.SellOperation, error)
	Get(ctx context.Context, companyID, id uuid.UUID) (*models.SellOperation, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, input UpdateInput) (*models.SellOperation, error)
	SoftDelete(ctx context.Context, input DeleteInput) error
}

type service struct {
	repo   Repository
	ledger ledger.Repository
	tx     txRunner
	outbox outboxPublisher
}

// CreateInput records one sale. Weight is entered in the given unit and
// normalized to grams and troy ounces; Rate is USD per troy ounce.
type CreateInput struct {
	CompanyID uuid.UUID
	ManagerID uuid.UUID
	Weight    decimal.Decimal
	Unit      enums.WeightUnit
	Rate      decimal.Decimal
}

// UpdateInput revises a sale's weight, unit or rate. Zero-valued fields keep
// the stored values.
type UpdateInput struct {
	CompanyID uuid.UUID
	ManagerID uuid.UUID
	SellID    uuid.UUID
	Weight    *decimal.Decimal
	Unit      *enums.WeightUnit
	Rate      *decimal.Decimal
}

// DeleteInput tombstones a sale and returns its weight and proceeds to the
// company balances.
type DeleteInput struct {
	CompanyID uuid.UUID
	ManagerID uuid.UUID
	SellID    uuid.UUID
}

// ListParams pages through a company's sell operations.
type ListParams struct {
	CompanyID uuid.UUID
	pkgpagination.Params
}

// ListResult is one page of sell operations plus the next cursor.
type ListResult struct {
	Items  []models.SellOperation `json:"items"`
	Cursor string                 `json:"cursor"`
}

// NewService builds a sell operation service with the required dependencies.
func NewService(repo Repository, ledgerRepo ledger.Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sells repository required")
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

// normalize converts an entered weight into grams, troy ounces and the
// USD amount at the given rate.
func normalize(weight decimal.Decimal, unit enums.WeightUnit, rate decimal.Decimal) (grams, ounces, amount decimal.Decimal, err error) {
	if !weight.GreaterThan(decimal.Zero) {
		return decimal.Zero, decimal.Zero, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}
	if !rate.GreaterThan(decimal.Zero) {
		return decimal.Zero, decimal.Zero, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "rate must be positive")
	}
	grams, err = gold.ToGrams(weight, unit)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid weight unit")
	}
	ounces = gold.GramsToTroyOunces(grams)
	amount = gold.RoundAmount(rate.Mul(ounces))
	return grams, ounces, amount, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.SellOperation, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	grams, ounces, amount, err := normalize(input.Weight, input.Unit, input.Rate)
	if err != nil {
		return nil, err
	}

	var created *models.SellOperation
	err = s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		ledgerRepo := s.ledger.WithTx(tx)
		company, err := ledgerRepo.FindCompany(ctx, input.CompanyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
		}
		if company.RemainWeight.LessThan(grams) {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "company held weight is insufficient")
		}

		sell := &models.SellOperation{
			CompanyID:   input.CompanyID,
			Weight:      input.Weight,
			Unit:        input.Unit,
			WeightGrams: grams,
			TroyOunces:  ounces,
			Rate:        input.Rate,
			Amount:      amount,
		}
		if err := s.repo.WithTx(tx).Create(ctx, sell); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sell operation")
		}

		delta := ledger.CompanyDelta{RemainWeight: grams.Neg(), Usd: amount}
		if err := ledgerRepo.AdjustCompany(ctx, input.CompanyID, delta); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle company balances")
		}

		created = sell
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellCreated,
			AggregateType: enums.AggregateSellOperation,
			AggregateID:   sell.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          sell,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, companyID, id uuid.UUID) (*models.SellOperation, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	sell, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sell operation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sell operation")
	}
	if sell.IsDeleted() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sell operation not found")
	}
	return sell, nil
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sell operations")
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

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.SellOperation, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.SellID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sell id required")
	}

	var updated *models.SellOperation
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sell, err := repo.FindByID(ctx, input.CompanyID, input.SellID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sell operation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sell operation")
		}
		if sell.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sell operation not found")
		}

		weight := sell.Weight
		if input.Weight != nil {
			weight = *input.Weight
		}
		unit := sell.Unit
		if input.Unit != nil {
			unit = *input.Unit
		}
		rate := sell.Rate
		if input.Rate != nil {
			rate = *input.Rate
		}

		grams, ounces, amount, err := normalize(weight, unit, rate)
		if err != nil {
			return err
		}

		// only the change in weight and proceeds moves the balances
		weightDelta := grams.Sub(sell.WeightGrams)
		amountDelta := amount.Sub(sell.Amount)

		ledgerRepo := s.ledger.WithTx(tx)
		if weightDelta.GreaterThan(decimal.Zero) {
			company, err := ledgerRepo.FindCompany(ctx, input.CompanyID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
			}
			if company.RemainWeight.LessThan(weightDelta) {
				return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "company held weight is insufficient")
			}
		}

		sell.Weight = weight
		sell.Unit = unit
		sell.Rate = rate
		sell.WeightGrams = grams
		sell.TroyOunces = ounces
		sell.Amount = amount
		if err := repo.Save(ctx, sell); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sell operation")
		}

		delta := ledger.CompanyDelta{RemainWeight: weightDelta.Neg(), Usd: amountDelta}
		if !delta.IsZero() {
			if err := ledgerRepo.AdjustCompany(ctx, input.CompanyID, delta); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust company balances")
			}
		}

		updated = sell
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellUpdated,
			AggregateType: enums.AggregateSellOperation,
			AggregateID:   sell.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          sell,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) SoftDelete(ctx context.Context, input DeleteInput) error {
	if input.CompanyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.SellID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sell id required")
	}

	return s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sell, err := repo.FindByID(ctx, input.CompanyID, input.SellID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sell operation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sell operation")
		}
		if sell.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sell operation already deleted")
		}

		now := time.Now().UTC()
		sell.DeletedAt = &now
		sell.DeletedBy = &input.ManagerID
		if err := repo.Save(ctx, sell); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete sell operation")
		}

		delta := ledger.CompanyDelta{RemainWeight: sell.WeightGrams, Usd: sell.Amount.Neg()}
		if err := s.ledger.WithTx(tx).AdjustCompany(ctx, input.CompanyID, delta); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse company balances")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellDeleted,
			AggregateType: enums.AggregateSellOperation,
			AggregateID:   sell.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          sell,
			Version:       1,
		})
	})
}
