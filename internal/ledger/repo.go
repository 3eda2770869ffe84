package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
)

// CompanyDelta describes increments against a company's balance columns.
// Zero fields are skipped.
type CompanyDelta struct {
	Cash            decimal.Decimal
	Usd             decimal.Decimal
	RemainWeight    decimal.Decimal
	WeightExpedited decimal.Decimal
}

// IsZero reports whether the delta would touch no columns.
func (d CompanyDelta) IsZero() bool {
	return d.Cash.IsZero() && d.Usd.IsZero() && d.RemainWeight.IsZero() && d.WeightExpedited.IsZero()
}

// Repository mutates ledger aggregates. Balance columns only ever change
// through the increment methods here so concurrent commits compose instead
// of overwriting each other.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	AdjustCompany(ctx context.Context, id uuid.UUID, delta CompanyDelta) error
	AdjustPartnerBalance(ctx context.Context, partnerID uuid.UUID, delta decimal.Decimal) error
	AdjustCustomerToPaid(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repository) AdjustCompany(ctx context.Context, id uuid.UUID, delta CompanyDelta) error {
	updates := map[string]any{}
	if !delta.Cash.IsZero() {
		updates["cash_balance"] = gorm.Expr("cash_balance + ?", delta.Cash)
	}
	if !delta.Usd.IsZero() {
		updates["usd_balance"] = gorm.Expr("usd_balance + ?", delta.Usd)
	}
	if !delta.RemainWeight.IsZero() {
		updates["remain_weight"] = gorm.Expr("remain_weight + ?", delta.RemainWeight)
	}
	if !delta.WeightExpedited.IsZero() {
		updates["total_weight_expedited"] = gorm.Expr("total_weight_expedited + ?", delta.WeightExpedited)
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) AdjustPartnerBalance(ctx context.Context, partnerID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Partner{}).
		Where("id = ?", partnerID).
		Update("balance", gorm.Expr("balance + ?", delta)).Error
}

func (r *repository) AdjustCustomerToPaid(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.UsdCustomer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{
			"to_paid": gorm.Expr("to_paid + ?", delta),
			"version": gorm.Expr("version + 1"),
		}).Error
}
