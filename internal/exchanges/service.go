package exchanges

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// archiveReasonCustomerDeleted marks exchanges parked by a customer soft
// delete so a restore only touches the rows the cascade archived.
const archiveReasonCustomerDeleted = "customer deleted"

type txRunner interface {
	WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages usd customers and the dollar exchanges sold to them. Every
// mutating transition bumps the row's version; callers pass the version they
// read and a mismatch is rejected as stale.
type Service interface {
	CreateCustomer(ctx context.Context, input CreateCustomerInput) (*models.UsdCustomer, error)
	GetCustomer(ctx context.Context, companyID, id uuid.UUID) (*models.UsdCustomer, error)
	ListCustomers(ctx context.Context, params ListCustomersParams) (*CustomerListResult, error)
	UpdateCustomer(ctx context.Context, input UpdateCustomerInput) (*models.UsdCustomer, error)
	SoftDeleteCustomer(ctx context.Context, input DeleteCustomerInput) error
	RestoreCustomer(ctx context.Context, input RestoreCustomerInput) (*models.UsdCustomer, error)

	CreateExchange(ctx context.Context, input CreateExchangeInput) (*models.DollarExchange, error)
	GetExchange(ctx context.Context, companyID, id uuid.UUID) (*models.DollarExchange, error)
	ListExchanges(ctx context.Context, params ListExchangesParams) (*ExchangeListResult, error)
	UpdateExchange(ctx context.Context, input UpdateExchangeInput) (*models.DollarExchange, error)
	SoftDeleteExchange(ctx context.Context, input DeleteExchangeInput) error
	RestoreExchange(ctx context.Context, input RestoreExchangeInput) (*models.DollarExchange, error)
}

type service struct {
	repo   Repository
	ledger ledger.Repository
	tx     txRunner
	outbox outboxPublisher
}

// CreateCustomerInput opens a counterparty ledger for dollar exchanges.
type CreateCustomerInput struct {
	CompanyID uuid.UUID
	ManagerID uuid.UUID
	Name      string
	Phone     string
}

// UpdateCustomerInput revises contact fields. Version must match the stored
// row.
type UpdateCustomerInput struct {
	CompanyID  uuid.UUID
	ManagerID  uuid.UUID
	CustomerID uuid.UUID
	Version    int64
	Name       *string
	Phone      *string
}

// DeleteCustomerInput tombstones a customer and parks their exchanges.
type DeleteCustomerInput struct {
	CompanyID  uuid.UUID
	ManagerID  uuid.UUID
	CustomerID uuid.UUID
	Version    int64
}

// RestoreCustomerInput undoes a soft delete. Parked exchanges return to
// their captured statuses; no balances move, their effect was never
// reversed.
type RestoreCustomerInput struct {
	CompanyID  uuid.UUID
	ManagerID  uuid.UUID
	CustomerID uuid.UUID
	Version    int64
}

// ListCustomersParams pages through a company's usd customers.
type ListCustomersParams struct {
	CompanyID uuid.UUID
	pkgpagination.Params
}

// CustomerListResult is one page of customers plus the next cursor.
type CustomerListResult struct {
	Items  []models.UsdCustomer `json:"items"`
	Cursor string               `json:"cursor"`
}

// NewService builds an exchange service with the required dependencies.
func NewService(repo Repository, ledgerRepo ledger.Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("exchanges repository required")
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

func versionedWriteError(err error, what string) error {
	if errors.Is(err, ErrStaleVersion) {
		return pkgerrors.New(pkgerrors.CodeStaleVersion, fmt.Sprintf("%s was modified concurrently", what))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update "+what)
}

func (s *service) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*models.UsdCustomer, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}

	customer := &models.UsdCustomer{
		CompanyID: input.CompanyID,
		Name:      name,
		Phone:     strings.TrimSpace(input.Phone),
		Status:    enums.CustomerStatusActive,
		Version:   1,
	}
	if err := s.repo.CreateCustomer(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return customer, nil
}

func (s *service) GetCustomer(ctx context.Context, companyID, id uuid.UUID) (*models.UsdCustomer, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	customer, err := s.repo.FindCustomerByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer.IsDeleted() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return customer, nil
}

func (s *service) ListCustomers(ctx context.Context, params ListCustomersParams) (*CustomerListResult, error) {
	if params.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := customerListQuery{
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

	rows, err := s.repo.ListCustomers(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	return &CustomerListResult{Items: rows, Cursor: nextCursor}, nil
}

func (s *service) UpdateCustomer(ctx context.Context, input UpdateCustomerInput) (*models.UsdCustomer, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	var updated *models.UsdCustomer
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := repo.FindCustomerByID(ctx, input.CompanyID, input.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
		if customer.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		if customer.Version != input.Version {
			return pkgerrors.New(pkgerrors.CodeStaleVersion, "customer was modified concurrently")
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
			}
			customer.Name = name
		}
		if input.Phone != nil {
			customer.Phone = strings.TrimSpace(*input.Phone)
		}

		if err := repo.UpdateCustomerVersioned(ctx, customer); err != nil {
			return versionedWriteError(err, "customer")
		}
		updated = customer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) SoftDeleteCustomer(ctx context.Context, input DeleteCustomerInput) error {
	if input.CompanyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	return s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := repo.FindCustomerByID(ctx, input.CompanyID, input.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
		if customer.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "customer already deleted")
		}
		if customer.Version != input.Version {
			return pkgerrors.New(pkgerrors.CodeStaleVersion, "customer was modified concurrently")
		}

		now := time.Now().UTC()
		customer.DeletedAt = &now
		customer.DeletedBy = &input.ManagerID
		customer.Status = enums.CustomerStatusInactive
		if err := repo.UpdateCustomerVersioned(ctx, customer); err != nil {
			return versionedWriteError(err, "customer")
		}

		if err := repo.ArchiveCustomerExchanges(ctx, customer.ID, archiveReasonCustomerDeleted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive customer exchanges")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCustomerDeleted,
			AggregateType: enums.AggregateUsdCustomer,
			AggregateID:   customer.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          customer,
			Version:       1,
		})
	})
}

func (s *service) RestoreCustomer(ctx context.Context, input RestoreCustomerInput) (*models.UsdCustomer, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	var restored *models.UsdCustomer
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := repo.FindCustomerByID(ctx, input.CompanyID, input.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
		if !customer.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "customer is not deleted")
		}
		if customer.Version != input.Version {
			return pkgerrors.New(pkgerrors.CodeStaleVersion, "customer was modified concurrently")
		}

		customer.DeletedAt = nil
		customer.DeletedBy = nil
		customer.Status = enums.CustomerStatusActive
		if err := repo.UpdateCustomerVersioned(ctx, customer); err != nil {
			return versionedWriteError(err, "customer")
		}

		// parked exchanges return to their captured statuses; their ledger
		// effect was never reversed, so nothing is reapplied
		if err := repo.RestoreCustomerExchanges(ctx, customer.ID, archiveReasonCustomerDeleted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore customer exchanges")
		}

		restored = customer
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCustomerRestored,
			AggregateType: enums.AggregateUsdCustomer,
			AggregateID:   customer.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          customer,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// exchangeAmounts computes the CFA side of a usd sale at the given rate.
func exchangeAmounts(rate, amountUSD decimal.Decimal) (decimal.Decimal, error) {
	if !rate.GreaterThan(decimal.Zero) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "rate must be positive")
	}
	if !amountUSD.GreaterThan(decimal.Zero) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "usd amount must be positive")
	}
	return rate.Mul(amountUSD).Round(2), nil
}
