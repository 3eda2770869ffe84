package buyops

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/internal/repo"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

// Repository manages persistence for buy operations and their gold lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, op *models.BuyOperation) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.BuyOperation, error)
	FindPartner(ctx context.Context, companyID, partnerID uuid.UUID) (*models.Partner, error)
	List(ctx context.Context, opts listQuery) ([]models.BuyOperation, error)
	Save(ctx context.Context, op *models.BuyOperation) error
	ReplaceGoldItems(ctx context.Context, opID uuid.UUID, items []models.GoldItem) error
	Delete(ctx context.Context, op *models.BuyOperation) error
}

type listQuery struct {
	companyID uuid.UUID
	limit     int
	cursor    *pkgpagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a buy operation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, op *models.BuyOperation) error {
	return r.db.WithContext(ctx).Create(op).Error
}

func (r *repository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.BuyOperation, error) {
	var op models.BuyOperation
	if err := r.db.WithContext(ctx).
		Preload("Golds").
		First(&op, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *repository) FindPartner(ctx context.Context, companyID, partnerID uuid.UUID) (*models.Partner, error) {
	var partner models.Partner
	if err := r.db.WithContext(ctx).
		First(&partner, "id = ? AND company_id = ?", partnerID, companyID).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *repository) List(ctx context.Context, opts listQuery) ([]models.BuyOperation, error) {
	query := r.db.WithContext(ctx).Model(&models.BuyOperation{}).
		Preload("Golds").
		Where("company_id = ?", opts.companyID)

	query = query.Scopes(repo.KeysetAfter(opts.cursor), repo.KeysetOrder).Limit(opts.limit)

	var rows []models.BuyOperation
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, op *models.BuyOperation) error {
	return r.db.WithContext(ctx).Omit("Golds").Save(op).Error
}

func (r *repository) ReplaceGoldItems(ctx context.Context, opID uuid.UUID, items []models.GoldItem) error {
	if err := r.db.WithContext(ctx).
		Where("buy_operation_id = ?", opID).
		Delete(&models.GoldItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].BuyOperationID = opID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) Delete(ctx context.Context, op *models.BuyOperation) error {
	if err := r.db.WithContext(ctx).
		Where("buy_operation_id = ?", op.ID).
		Delete(&models.GoldItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(op).Error
}
