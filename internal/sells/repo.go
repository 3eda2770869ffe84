package sells

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/internal/repo"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

// Repository manages persistence for sell operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sell *models.SellOperation) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.SellOperation, error)
	List(ctx context.Context, opts listQuery) ([]models.SellOperation, error)
	Save(ctx context.Context, sell *models.SellOperation) error
}

type listQuery struct {
	companyID uuid.UUID
	limit     int
	cursor    *pkgpagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sell operation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sell *models.SellOperation) error {
	return r.db.WithContext(ctx).Create(sell).Error
}

func (r *repository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.SellOperation, error) {
	var sell models.SellOperation
	if err := r.db.WithContext(ctx).
		First(&sell, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &sell, nil
}

func (r *repository) List(ctx context.Context, opts listQuery) ([]models.SellOperation, error) {
	query := r.db.WithContext(ctx).Model(&models.SellOperation{}).
		Where("company_id = ?", opts.companyID).
		Where("deleted_at IS NULL")

	query = query.Scopes(repo.KeysetAfter(opts.cursor), repo.KeysetOrder).Limit(opts.limit)

	var rows []models.SellOperation
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, sell *models.SellOperation) error {
	return r.db.WithContext(ctx).Save(sell).Error
}
