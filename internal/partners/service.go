package partners

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/pkg/db"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
	"github.com/Bbt3-alx/akera-backend/pkg/outbox"
	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

// archiveReasonDeleted stamps buy operations archived by a partner tombstone
// so a later restore only touches the rows this cascade archived.
const archiveReasonDeleted = "partner deleted"

type txRunner interface {
	WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines partner lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Partner, error)
	Get(ctx context.Context, companyID, partnerID uuid.UUID) (*models.Partner, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, input UpdateInput) (*models.Partner, error)
	SoftDelete(ctx context.Context, input DeleteInput) error
	Restore(ctx context.Context, input RestoreInput) (*models.Partner, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// CreateInput carries the fields for registering a partner.
type CreateInput struct {
	CompanyID uuid.UUID
	Name      string
	Phone     string
	Currency  enums.Currency
}

// UpdateInput mutates a partner's descriptive fields. Balance is never
// writable here; it only moves through ledger deltas.
type UpdateInput struct {
	CompanyID uuid.UUID
	PartnerID uuid.UUID
	Name      *string
	Phone     *string
}

// DeleteInput tombstones a partner.
type DeleteInput struct {
	CompanyID uuid.UUID
	PartnerID uuid.UUID
	ManagerID uuid.UUID
}

// RestoreInput reverses a partner tombstone.
type RestoreInput struct {
	CompanyID uuid.UUID
	PartnerID uuid.UUID
	ManagerID uuid.UUID
}

// ListParams pages through a company's active partners.
type ListParams struct {
	CompanyID uuid.UUID
	pkgpagination.Params
}

// ListResult is one page of partners plus the cursor for the next page.
type ListResult struct {
	Items  []models.Partner `json:"items"`
	Cursor string           `json:"cursor"`
}

// NewService wires a partner service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("partners repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Partner, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner name required")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyFCFA
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}

	partner := &models.Partner{
		CompanyID: input.CompanyID,
		Name:      strings.TrimSpace(input.Name),
		Phone:     strings.TrimSpace(input.Phone),
		Currency:  currency,
	}
	if err := s.repo.Create(ctx, partner); err != nil {
		if db.IsUniqueViolation(err, "partners_company_name_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("partner %q already exists", partner.Name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create partner")
	}
	return partner, nil
}

func (s *service) Get(ctx context.Context, companyID, partnerID uuid.UUID) (*models.Partner, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "company context missing")
	}
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}
	partner, err := s.repo.FindByID(ctx, companyID, partnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner")
	}
	return partner, nil
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list partners")
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

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Partner, error) {
	partner, err := s.Get(ctx, input.CompanyID, input.PartnerID)
	if err != nil {
		return nil, err
	}
	if partner.IsDeleted() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "partner is deleted")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner name required")
		}
		partner.Name = name
	}
	if input.Phone != nil {
		partner.Phone = strings.TrimSpace(*input.Phone)
	}

	if err := s.repo.Save(ctx, partner); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update partner")
	}
	return partner, nil
}

// SoftDelete tombstones the partner and archives their pending buy
// operations in the same transaction. Historical balances stay untouched.
func (s *service) SoftDelete(ctx context.Context, input DeleteInput) error {
	if input.ManagerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "manager identity missing")
	}

	return s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		partner, err := repo.FindByID(ctx, input.CompanyID, input.PartnerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner")
		}
		if partner.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "partner already deleted")
		}

		now := time.Now()
		partner.DeletedAt = &now
		partner.DeletedBy = &input.ManagerID
		partner.RestorationHistory = append(partner.RestorationHistory, models.RestorationEntry{
			DeletedAt: now,
			DeletedBy: input.ManagerID,
		})
		if err := repo.Save(ctx, partner); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "tombstone partner")
		}
		if err := repo.ArchivePendingBuyOperations(ctx, partner.ID, archiveReasonDeleted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive buy operations")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPartnerDeleted,
			AggregateType: enums.AggregatePartner,
			AggregateID:   partner.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          partner,
			Version:       1,
		})
	})
}

// Restore clears the tombstone and returns cascade-archived buy operations
// to their captured previous status.
func (s *service) Restore(ctx context.Context, input RestoreInput) (*models.Partner, error) {
	if input.ManagerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "manager identity missing")
	}

	var restored *models.Partner
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		partner, err := repo.FindByID(ctx, input.CompanyID, input.PartnerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner")
		}
		if !partner.IsDeleted() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "partner is not deleted")
		}

		now := time.Now()
		partner.DeletedAt = nil
		partner.DeletedBy = nil
		if n := len(partner.RestorationHistory); n > 0 && partner.RestorationHistory[n-1].RestoredAt == nil {
			partner.RestorationHistory[n-1].RestoredAt = &now
			partner.RestorationHistory[n-1].RestoredBy = &input.ManagerID
		}
		if err := repo.Save(ctx, partner); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore partner")
		}
		if err := repo.RestoreArchivedBuyOperations(ctx, partner.ID, archiveReasonDeleted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore buy operations")
		}

		restored = partner
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPartnerRestored,
			AggregateType: enums.AggregatePartner,
			AggregateID:   partner.ID,
			Actor:         &outbox.ActorRef{ManagerID: input.ManagerID, CompanyID: &input.CompanyID},
			Data:          partner,
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}
