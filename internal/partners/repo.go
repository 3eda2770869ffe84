package partners

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/internal/repo"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

// Repository manages persistence for partners and the buy operation
// archive cascade that rides along with partner tombstones.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, partner *models.Partner) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.Partner, error)
	List(ctx context.Context, opts listQuery) ([]models.Partner, error)
	Save(ctx context.Context, partner *models.Partner) error
	ArchivePendingBuyOperations(ctx context.Context, partnerID uuid.UUID, reason string) error
	RestoreArchivedBuyOperations(ctx context.Context, partnerID uuid.UUID, reason string) error
}

type listQuery struct {
	companyID uuid.UUID
	limit     int
	cursor    *pkgpagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a partner repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, partner *models.Partner) error {
	return r.db.WithContext(ctx).Create(partner).Error
}

// FindByID returns the partner including tombstoned rows; callers decide
// whether a deleted partner is acceptable for the operation at hand.
func (r *repository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.Partner, error) {
	var partner models.Partner
	if err := r.db.WithContext(ctx).
		First(&partner, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *repository) List(ctx context.Context, opts listQuery) ([]models.Partner, error) {
	query := r.db.WithContext(ctx).Model(&models.Partner{}).
		Where("company_id = ?", opts.companyID).
		Where("deleted_at IS NULL")

	query = query.Scopes(repo.KeysetAfter(opts.cursor), repo.KeysetOrder).Limit(opts.limit)

	var rows []models.Partner
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, partner *models.Partner) error {
	return r.db.WithContext(ctx).Save(partner).Error
}

func (r *repository) ArchivePendingBuyOperations(ctx context.Context, partnerID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).Model(&models.BuyOperation{}).
		Where("partner_id = ? AND status = ?", partnerID, enums.BuyOperationStatusPending).
		Updates(map[string]any{
			"previous_status": gorm.Expr("status"),
			"status":          enums.BuyOperationStatusArchived,
			"archived_at":     time.Now(),
			"archived_reason": reason,
		}).Error
}

func (r *repository) RestoreArchivedBuyOperations(ctx context.Context, partnerID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).Model(&models.BuyOperation{}).
		Where("partner_id = ? AND status = ? AND archived_reason = ?", partnerID, enums.BuyOperationStatusArchived, reason).
		Updates(map[string]any{
			"status":          gorm.Expr("previous_status"),
			"previous_status": nil,
			"archived_at":     nil,
			"archived_reason": nil,
		}).Error
}
