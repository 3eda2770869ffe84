package exchanges

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/internal/ledger"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
	"github.com/Bbt3-alx/akera-backend/pkg/outbox"
	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

// archiveReasonDeleted marks exchanges archived by their own soft delete, as
// opposed to a customer cascade.
const archiveReasonDeleted = "exchange deleted"

// CreateExchangeInput sells USD to a customer against CFA at the given rate.
type CreateExchangeInput struct {
	CompanyID  uuid.UUID
	ManagerID  uuid.UUID
	CustomerID uuid.UUID
	Rate       decimal.Decimal
	AmountUSD  decimal.Decimal
}

// UpdateExchangeInput revises an exchange. Nil fields keep stored values; a
// new CustomerID moves the CFA debt from the old customer to the new one.
type UpdateExchangeInput struct {
	CompanyID  uuid.UUID
	ManagerID  uuid.UUID
	ExchangeID uuid.UUID
	Version    int64
	CustomerID *uuid.UUID
	Rate       *decimal.Decimal
	AmountUSD  *decimal.Decimal
}

// DeleteExchangeInput tombstones an exchange and returns the USD to the
// company while clearing the customer's CFA debt.
type DeleteExchangeInput struct {
	CompanyID  uuid.UUID
	ManagerID  uuid.UUID
	ExchangeID uuid.UUID
	Version    int64
}

// RestoreExchangeInput undoes a soft delete, re-checking the USD balance
// before the deltas are reapplied.
type RestoreExchangeInput struct {
	CompanyID  uuid.UUID
	ManagerID  uuid.UUID
	ExchangeID uuid.UUID
	Version    int64
}

// ListExchangesParams pages through a company's exchanges, optionally scoped
// to one customer.
type ListExchangesParams struct {
	CompanyID  uuid.UUID
	CustomerID uuid.UUID
	pkgpagination.Params
}

// ExchangeListResult is one page of exchanges plus the next cursor.
type ExchangeListResult struct {
	Items  []models.DollarExchange `json:"items"`
	Cursor string                  `json:"cursor"`
}

func (s *service) CreateExchange(ctx context.Context, input CreateExchangeInput) (*models.DollarExchange, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	amountCFA, err := exchangeAmounts(input.Rate, input.AmountUSD)
	if err != nil {
		return nil, err
	}

	var created *models.DollarExchange
	err = s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := repo.FindCustomerByID(ctx, input.CompanyID, input.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
		if customer.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "customer is deleted")
		}

		ledgerRepo := s.ledger.WithTx(tx)
		company, err := ledgerRepo.FindCompany(ctx, input.CompanyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
		}
		if company.UsdBalance.LessThan(input.AmountUSD) {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "company usd balance is insufficient")
		}

		exchange := &models.DollarExchange{
			CompanyID:     input.CompanyID,
			UsdCustomerID: customer.ID,
			Rate:          input.Rate,
			AmountUSD:     input.AmountUSD,
			AmountCFA:     amountCFA,
			Status:        enums.ExchangeStatusPending,
			Version:       1,
		}
		if err := repo.CreateExchange(ctx, exchange); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create exchange")
		}

		if err := ledgerRepo.AdjustCompany(ctx, input.CompanyID, ledger.CompanyDelta{Usd: input.AmountUSD.Neg()}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit company usd")
		}
		if err := ledgerRepo.AdjustCustomerToPaid(ctx, customer.ID, amountCFA); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "charge customer")
		}

		created = exchange
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventExchangeCreated,
			AggregateType: enums.AggregateDollarExchange,
			AggregateID:   exchange.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          exchange,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) GetExchange(ctx context.Context, companyID, id uuid.UUID) (*models.DollarExchange, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	exchange, err := s.repo.FindExchangeByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "exchange not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load exchange")
	}
	if exchange.IsDeleted() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "exchange not found")
	}
	return exchange, nil
}

func (s *service) ListExchanges(ctx context.Context, params ListExchangesParams) (*ExchangeListResult, error) {
	if params.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := exchangeListQuery{
		companyID:  params.CompanyID,
		customerID: params.CustomerID,
		limit:      pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.ListExchanges(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list exchanges")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	return &ExchangeListResult{Items: rows, Cursor: nextCursor}, nil
}

func (s *service) UpdateExchange(ctx context.Context, input UpdateExchangeInput) (*models.DollarExchange, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.ExchangeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exchange id required")
	}

	var updated *models.DollarExchange
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exchange, err := repo.FindExchangeByID(ctx, input.CompanyID, input.ExchangeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "exchange not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load exchange")
		}
		if exchange.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeNotFound, "exchange not found")
		}
		if exchange.Status == enums.ExchangeStatusArchived || exchange.Status == enums.ExchangeStatusCanceled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "exchange is not editable in its current status")
		}
		if exchange.Version != input.Version {
			return pkgerrors.New(pkgerrors.CodeStaleVersion, "exchange was modified concurrently")
		}

		rate := exchange.Rate
		if input.Rate != nil {
			rate = *input.Rate
		}
		amountUSD := exchange.AmountUSD
		if input.AmountUSD != nil {
			amountUSD = *input.AmountUSD
		}
		amountCFA, err := exchangeAmounts(rate, amountUSD)
		if err != nil {
			return err
		}

		newCustomerID := exchange.UsdCustomerID
		if input.CustomerID != nil && *input.CustomerID != uuid.Nil {
			newCustomerID = *input.CustomerID
		}
		if newCustomerID != exchange.UsdCustomerID {
			customer, err := repo.FindCustomerByID(ctx, input.CompanyID, newCustomerID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
			}
			if customer.IsDeleted() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "customer is deleted")
			}
		}

		// only the growth in the usd leg needs covering
		usdDelta := amountUSD.Sub(exchange.AmountUSD)
		ledgerRepo := s.ledger.WithTx(tx)
		if usdDelta.GreaterThan(decimal.Zero) {
			company, err := ledgerRepo.FindCompany(ctx, input.CompanyID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
			}
			if company.UsdBalance.LessThan(usdDelta) {
				return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "company usd balance is insufficient")
			}
		}

		oldCustomerID := exchange.UsdCustomerID
		oldCFA := exchange.AmountCFA

		exchange.UsdCustomerID = newCustomerID
		exchange.Rate = rate
		exchange.AmountUSD = amountUSD
		exchange.AmountCFA = amountCFA
		if err := repo.UpdateExchangeVersioned(ctx, exchange); err != nil {
			return versionedWriteError(err, "exchange")
		}

		if !usdDelta.IsZero() {
			if err := ledgerRepo.AdjustCompany(ctx, input.CompanyID, ledger.CompanyDelta{Usd: usdDelta.Neg()}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust company usd")
			}
		}
		if newCustomerID != oldCustomerID {
			if err := ledgerRepo.AdjustCustomerToPaid(ctx, oldCustomerID, oldCFA.Neg()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release old customer")
			}
			if err := ledgerRepo.AdjustCustomerToPaid(ctx, newCustomerID, amountCFA); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "charge new customer")
			}
		} else if cfaDelta := amountCFA.Sub(oldCFA); !cfaDelta.IsZero() {
			if err := ledgerRepo.AdjustCustomerToPaid(ctx, oldCustomerID, cfaDelta); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust customer")
			}
		}

		updated = exchange
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventExchangeUpdated,
			AggregateType: enums.AggregateDollarExchange,
			AggregateID:   exchange.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          exchange,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) SoftDeleteExchange(ctx context.Context, input DeleteExchangeInput) error {
	if input.CompanyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.ExchangeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "exchange id required")
	}

	return s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exchange, err := repo.FindExchangeByID(ctx, input.CompanyID, input.ExchangeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "exchange not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load exchange")
		}
		if exchange.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "exchange already deleted")
		}
		if exchange.Version != input.Version {
			return pkgerrors.New(pkgerrors.CodeStaleVersion, "exchange was modified concurrently")
		}

		now := time.Now().UTC()
		reason := archiveReasonDeleted
		previous := exchange.Status
		exchange.PreviousStatus = &previous
		exchange.Status = enums.ExchangeStatusArchived
		exchange.ArchivedAt = &now
		exchange.ArchivedReason = &reason
		exchange.DeletedAt = &now
		exchange.DeletedBy = &input.ManagerID
		if err := repo.UpdateExchangeVersioned(ctx, exchange); err != nil {
			return versionedWriteError(err, "exchange")
		}

		ledgerRepo := s.ledger.WithTx(tx)
		if err := ledgerRepo.AdjustCompany(ctx, input.CompanyID, ledger.CompanyDelta{Usd: exchange.AmountUSD}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund company usd")
		}
		if err := ledgerRepo.AdjustCustomerToPaid(ctx, exchange.UsdCustomerID, exchange.AmountCFA.Neg()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release customer")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventExchangeDeleted,
			AggregateType: enums.AggregateDollarExchange,
			AggregateID:   exchange.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          exchange,
			Version:       1,
		})
	})
}

func (s *service) RestoreExchange(ctx context.Context, input RestoreExchangeInput) (*models.DollarExchange, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.ExchangeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exchange id required")
	}

	var restored *models.DollarExchange
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exchange, err := repo.FindExchangeByID(ctx, input.CompanyID, input.ExchangeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "exchange not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load exchange")
		}
		if !exchange.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "exchange is not deleted")
		}
		if exchange.Version != input.Version {
			return pkgerrors.New(pkgerrors.CodeStaleVersion, "exchange was modified concurrently")
		}

		// the delete returned the USD to the company, so restoring has to
		// cover the usd leg again
		ledgerRepo := s.ledger.WithTx(tx)
		company, err := ledgerRepo.FindCompany(ctx, input.CompanyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
		}
		if company.UsdBalance.LessThan(exchange.AmountUSD) {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "company usd balance is insufficient")
		}

		status := enums.ExchangeStatusPending
		if exchange.PreviousStatus != nil {
			status = *exchange.PreviousStatus
		}
		exchange.Status = status
		exchange.PreviousStatus = nil
		exchange.ArchivedAt = nil
		exchange.ArchivedReason = nil
		exchange.DeletedAt = nil
		exchange.DeletedBy = nil
		if err := repo.UpdateExchangeVersioned(ctx, exchange); err != nil {
			return versionedWriteError(err, "exchange")
		}

		if err := ledgerRepo.AdjustCompany(ctx, input.CompanyID, ledger.CompanyDelta{Usd: exchange.AmountUSD.Neg()}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit company usd")
		}
		if err := ledgerRepo.AdjustCustomerToPaid(ctx, exchange.UsdCustomerID, exchange.AmountCFA); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "charge customer")
		}

		restored = exchange
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventExchangeRestored,
			AggregateType: enums.AggregateDollarExchange,
			AggregateID:   exchange.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          exchange,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}
