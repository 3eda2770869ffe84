package shipping

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/internal/repo"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

// Repository manages persistence for shipping operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shipment *models.ShippingOperation) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.ShippingOperation, error)
	FindBuyOperation(ctx context.Context, id uuid.UUID) (*models.BuyOperation, error)
	List(ctx context.Context, opts listQuery) ([]models.ShippingOperation, error)
	Save(ctx context.Context, shipment *models.ShippingOperation) error
	SetBuyOperationStatus(ctx context.Context, opID uuid.UUID, status enums.BuyOperationStatus) error
	SetGoldSituation(ctx context.Context, opID uuid.UUID, situation enums.GoldSituation) error
}

type listQuery struct {
	companyID uuid.UUID
	limit     int
	cursor    *pkgpagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a shipping repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, shipment *models.ShippingOperation) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

func (r *repository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.ShippingOperation, error) {
	var shipment models.ShippingOperation
	if err := r.db.WithContext(ctx).
		Preload("BuyOperation").
		First(&shipment, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// FindBuyOperation loads the buy operation without a company filter; the
// service compares ownership itself so it can tell Unauthorized from NotFound.
func (r *repository) FindBuyOperation(ctx context.Context, id uuid.UUID) (*models.BuyOperation, error) {
	var op models.BuyOperation
	if err := r.db.WithContext(ctx).
		Preload("Golds").
		First(&op, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *repository) List(ctx context.Context, opts listQuery) ([]models.ShippingOperation, error) {
	query := r.db.WithContext(ctx).Model(&models.ShippingOperation{}).
		Where("company_id = ?", opts.companyID)

	query = query.Scopes(repo.KeysetAfter(opts.cursor), repo.KeysetOrder).Limit(opts.limit)

	var rows []models.ShippingOperation
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, shipment *models.ShippingOperation) error {
	return r.db.WithContext(ctx).Omit("BuyOperation").Save(shipment).Error
}

func (r *repository) SetBuyOperationStatus(ctx context.Context, opID uuid.UUID, status enums.BuyOperationStatus) error {
	return r.db.WithContext(ctx).Model(&models.BuyOperation{}).
		Where("id = ?", opID).
		Update("status", status).Error
}

func (r *repository) SetGoldSituation(ctx context.Context, opID uuid.UUID, situation enums.GoldSituation) error {
	return r.db.WithContext(ctx).Model(&models.GoldItem{}).
		Where("buy_operation_id = ?", opID).
		Update("situation", situation).Error
}
