package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/internal/repo"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

// Repository manages persistence for settlements against buy operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.Payment, error)
	FindBuyOperation(ctx context.Context, companyID, id uuid.UUID) (*models.BuyOperation, error)
	LastForOperation(ctx context.Context, opID uuid.UUID) (*models.Payment, error)
	List(ctx context.Context, opts listQuery) ([]models.Payment, error)
	SaveBuyOperation(ctx context.Context, op *models.BuyOperation) error
	Delete(ctx context.Context, payment *models.Payment) error
}

type listQuery struct {
	companyID   uuid.UUID
	operationID uuid.UUID
	limit       int
	cursor      *pkgpagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		First(&payment, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindBuyOperation(ctx context.Context, companyID, id uuid.UUID) (*models.BuyOperation, error) {
	var op models.BuyOperation
	if err := r.db.WithContext(ctx).
		First(&op, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

// LastForOperation returns the newest payment against the operation, or nil
// when none exists yet.
func (r *repository) LastForOperation(ctx context.Context, opID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("operation_id = ?", opID).
		Order("created_at DESC").
		Order("id DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) List(ctx context.Context, opts listQuery) ([]models.Payment, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("company_id = ?", opts.companyID)

	if opts.operationID != uuid.Nil {
		query = query.Where("operation_id = ?", opts.operationID)
	}
	query = query.Scopes(repo.KeysetAfter(opts.cursor), repo.KeysetOrder).Limit(opts.limit)

	var rows []models.Payment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SaveBuyOperation(ctx context.Context, op *models.BuyOperation) error {
	return r.db.WithContext(ctx).Omit("Golds").Save(op).Error
}

func (r *repository) Delete(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Delete(payment).Error
}
