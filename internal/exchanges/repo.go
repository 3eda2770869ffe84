package exchanges

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/internal/repo"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

// ErrStaleVersion is returned by versioned updates when the stored row no
// longer carries the expected version.
var ErrStaleVersion = errors.New("version mismatch")

// Repository manages persistence for usd customers and dollar exchanges.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCustomer(ctx context.Context, customer *models.UsdCustomer) error
	FindCustomerByID(ctx context.Context, companyID, id uuid.UUID) (*models.UsdCustomer, error)
	ListCustomers(ctx context.Context, opts customerListQuery) ([]models.UsdCustomer, error)
	UpdateCustomerVersioned(ctx context.Context, customer *models.UsdCustomer) error

	CreateExchange(ctx context.Context, exchange *models.DollarExchange) error
	FindExchangeByID(ctx context.Context, companyID, id uuid.UUID) (*models.DollarExchange, error)
	ListExchanges(ctx context.Context, opts exchangeListQuery) ([]models.DollarExchange, error)
	UpdateExchangeVersioned(ctx context.Context, exchange *models.DollarExchange) error
	ArchiveCustomerExchanges(ctx context.Context, customerID uuid.UUID, reason string) error
	RestoreCustomerExchanges(ctx context.Context, customerID uuid.UUID, reason string) error
}

type customerListQuery struct {
	companyID uuid.UUID
	limit     int
	cursor    *pkgpagination.Cursor
}

type exchangeListQuery struct {
	companyID  uuid.UUID
	customerID uuid.UUID
	limit      int
	cursor     *pkgpagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an exchange repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCustomer(ctx context.Context, customer *models.UsdCustomer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) FindCustomerByID(ctx context.Context, companyID, id uuid.UUID) (*models.UsdCustomer, error) {
	var customer models.UsdCustomer
	if err := r.db.WithContext(ctx).
		First(&customer, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) ListCustomers(ctx context.Context, opts customerListQuery) ([]models.UsdCustomer, error) {
	query := r.db.WithContext(ctx).Model(&models.UsdCustomer{}).
		Where("company_id = ?", opts.companyID).
		Where("deleted_at IS NULL")

	query = query.Scopes(repo.KeysetAfter(opts.cursor), repo.KeysetOrder).Limit(opts.limit)

	var rows []models.UsdCustomer
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateCustomerVersioned writes the customer's mutable fields guarded by the
// in-memory version and bumps it on success. ToPaid moves only through the
// ledger's increment path and is deliberately absent here.
func (r *repository) UpdateCustomerVersioned(ctx context.Context, customer *models.UsdCustomer) error {
	res := r.db.WithContext(ctx).Model(&models.UsdCustomer{}).
		Where("id = ? AND version = ?", customer.ID, customer.Version).
		Updates(map[string]interface{}{
			"name":       customer.Name,
			"phone":      customer.Phone,
			"status":     customer.Status,
			"deleted_at": customer.DeletedAt,
			"deleted_by": customer.DeletedBy,
			"version":    customer.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	customer.Version++
	return nil
}

func (r *repository) CreateExchange(ctx context.Context, exchange *models.DollarExchange) error {
	return r.db.WithContext(ctx).Create(exchange).Error
}

func (r *repository) FindExchangeByID(ctx context.Context, companyID, id uuid.UUID) (*models.DollarExchange, error) {
	var exchange models.DollarExchange
	if err := r.db.WithContext(ctx).
		First(&exchange, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, err
	}
	return &exchange, nil
}

func (r *repository) ListExchanges(ctx context.Context, opts exchangeListQuery) ([]models.DollarExchange, error) {
	query := r.db.WithContext(ctx).Model(&models.DollarExchange{}).
		Where("company_id = ?", opts.companyID).
		Where("deleted_at IS NULL")

	if opts.customerID != uuid.Nil {
		query = query.Where("usd_customer_id = ?", opts.customerID)
	}
	query = query.Scopes(repo.KeysetAfter(opts.cursor), repo.KeysetOrder).Limit(opts.limit)

	var rows []models.DollarExchange
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateExchangeVersioned(ctx context.Context, exchange *models.DollarExchange) error {
	res := r.db.WithContext(ctx).Model(&models.DollarExchange{}).
		Where("id = ? AND version = ?", exchange.ID, exchange.Version).
		Updates(map[string]interface{}{
			"usd_customer_id": exchange.UsdCustomerID,
			"rate":            exchange.Rate,
			"amount_usd":      exchange.AmountUSD,
			"amount_cfa":      exchange.AmountCFA,
			"status":          exchange.Status,
			"previous_status": exchange.PreviousStatus,
			"archived_at":     exchange.ArchivedAt,
			"archived_reason": exchange.ArchivedReason,
			"deleted_at":      exchange.DeletedAt,
			"deleted_by":      exchange.DeletedBy,
			"version":         exchange.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	exchange.Version++
	return nil
}

// ArchiveCustomerExchanges parks a customer's live exchanges, capturing each
// row's status so a restore can put it back.
func (r *repository) ArchiveCustomerExchanges(ctx context.Context, customerID uuid.UUID, reason string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.DollarExchange{}).
		Where("usd_customer_id = ?", customerID).
		Where("deleted_at IS NULL").
		Where("status <> ?", enums.ExchangeStatusArchived).
		Updates(map[string]interface{}{
			"previous_status": gorm.Expr("status"),
			"status":          enums.ExchangeStatusArchived,
			"archived_at":     now,
			"archived_reason": reason,
			"version":         gorm.Expr("version + 1"),
		}).Error
}

// RestoreCustomerExchanges undoes ArchiveCustomerExchanges for rows parked
// with the given reason. Rows archived for other reasons stay put.
func (r *repository) RestoreCustomerExchanges(ctx context.Context, customerID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).Model(&models.DollarExchange{}).
		Where("usd_customer_id = ?", customerID).
		Where("deleted_at IS NULL").
		Where("status = ?", enums.ExchangeStatusArchived).
		Where("archived_reason = ?", reason).
		Updates(map[string]interface{}{
			"status":          gorm.Expr("previous_status"),
			"previous_status": nil,
			"archived_at":     nil,
			"archived_reason": nil,
			"version":         gorm.Expr("version + 1"),
		}).Error
}
