package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/pkg/enums"
)

// DollarExchange sells USD to a customer against CFA. PreviousStatus is
// captured when a cascade archives the record so a restore can put it back.
type DollarExchange struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID      uuid.UUID             `gorm:"column:company_id;type:uuid;not null;index"`
	UsdCustomerID  uuid.UUID             `gorm:"column:usd_customer_id;type:uuid;not null;index"`
	UsdCustomer    *UsdCustomer          `gorm:"foreignKey:UsdCustomerID"`
	Rate           decimal.Decimal       `gorm:"column:rate;type:numeric(18,4);not null"`
	AmountUSD      decimal.Decimal       `gorm:"column:amount_usd;type:numeric(18,2);not null"`
	AmountCFA      decimal.Decimal       `gorm:"column:amount_cfa;type:numeric(18,2);not null"`
	Status         enums.ExchangeStatus  `gorm:"column:status;type:text;not null;default:'pending'"`
	PreviousStatus *enums.ExchangeStatus `gorm:"column:previous_status;type:text"`
	ArchivedAt     *time.Time            `gorm:"column:archived_at"`
	ArchivedReason *string               `gorm:"column:archived_reason"`
	Version        int64                 `gorm:"column:version;not null;default:1"`
	DeletedAt      *time.Time            `gorm:"column:deleted_at;index"`
	DeletedBy      *uuid.UUID            `gorm:"column:deleted_by;type:uuid"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// IsDeleted reports whether the exchange carries a tombstone.
func (d *DollarExchange) IsDeleted() bool {
	return d.DeletedAt != nil
}
