package payments

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
	"github.com/Bbt3-alx/akera-backend/pkg/outbox"
	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

type txRunner interface {
	WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service settles buy operations in partial or full payments.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Payment, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Cancel(ctx context.Context, input CancelInput) error
}

type service struct {
	repo   Repository
	ledger ledger.Repository
	tx     txRunner
	outbox outboxPublisher
}

// CreateInput records one settlement against a buy operation.
type CreateInput struct {
	CompanyID   uuid.UUID
	ManagerID   uuid.UUID
	OperationID uuid.UUID
	Amount      decimal.Decimal
	Method      enums.PaymentMethod
}

// CancelInput reverses a settlement in full: company cash, partner balance
// and the operation's paid amount all return to their prior values.
type CancelInput struct {
	CompanyID uuid.UUID
	ManagerID uuid.UUID
	PaymentID uuid.UUID
}

// ListParams pages through a company's payments, optionally scoped to one
// buy operation.
type ListParams struct {
	CompanyID   uuid.UUID
	OperationID uuid.UUID
	pkgpagination.Params
}

// ListResult is one page of payments plus the next cursor.
type ListResult struct {
	Items  []models.Payment `json:"items"`
	Cursor string           `json:"cursor"`
}

// NewService builds a payment service with the required dependencies.
func NewService(repo Repository, ledgerRepo ledger.Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
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

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Payment, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.OperationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "operation id required")
	}
	if !input.Amount.GreaterThan(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	method := input.Method
	if method == "" {
		method = enums.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}

	var created *models.Payment
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		op, err := repo.FindBuyOperation(ctx, input.CompanyID, input.OperationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "buy operation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buy operation")
		}

		// a prior payment's stored remain carries the running balance, but
		// cancelling a non-latest payment leaves later snapshots stale-low,
		// so the operation's own remaining amount is the floor
		remaining := op.RemainingAmount()
		last, err := repo.LastForOperation(ctx, op.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load prior payment")
		}
		if last != nil && last.Remain.GreaterThan(remaining) {
			remaining = last.Remain
		}

		if input.Amount.GreaterThan(remaining) {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("amount exceeds remaining %s", remaining))
		}

		ledgerRepo := s.ledger.WithTx(tx)
		company, err := ledgerRepo.FindCompany(ctx, input.CompanyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
		}
		if company.CashBalance.LessThan(input.Amount) {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "company cash balance is insufficient")
		}

		payment := &models.Payment{
			CompanyID:   input.CompanyID,
			PartnerID:   op.PartnerID,
			OperationID: op.ID,
			Amount:      input.Amount,
			TotalAmount: op.Amount,
			Remain:      remaining.Sub(input.Amount),
			Method:      method,
		}
		if err := repo.Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		op.AmountPaid = op.AmountPaid.Add(input.Amount)
		op.PaymentStatus = models.PaymentStatusFor(op.AmountPaid, op.Amount)
		if err := repo.SaveBuyOperation(ctx, op); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update buy operation")
		}

		if err := ledgerRepo.AdjustCompany(ctx, input.CompanyID, ledger.CompanyDelta{Cash: input.Amount.Neg()}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit company")
		}
		if err := ledgerRepo.AdjustPartnerBalance(ctx, op.PartnerID, input.Amount.Neg()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit partner")
		}

		created = payment
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          payment,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		companyID:   params.CompanyID,
		operationID: params.OperationID,
		limit:       pkgpagination.LimitWithBuffer(params.Limit),
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
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

func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if input.CompanyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if input.PaymentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	return s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.FindByID(ctx, input.CompanyID, input.PaymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}

		op, err := repo.FindBuyOperation(ctx, input.CompanyID, payment.OperationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "buy operation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buy operation")
		}

		op.AmountPaid = op.AmountPaid.Sub(payment.Amount)
		if op.AmountPaid.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment no longer matches the operation's paid amount")
		}
		op.PaymentStatus = models.PaymentStatusFor(op.AmountPaid, op.Amount)
		if err := repo.SaveBuyOperation(ctx, op); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update buy operation")
		}

		ledgerRepo := s.ledger.WithTx(tx)
		if err := ledgerRepo.AdjustCompany(ctx, input.CompanyID, ledger.CompanyDelta{Cash: payment.Amount}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund company")
		}
		if err := ledgerRepo.AdjustPartnerBalance(ctx, payment.PartnerID, payment.Amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund partner")
		}

		if err := repo.Delete(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete payment")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentCanceled,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          payment,
			Version:       1,
		})
	})
}
