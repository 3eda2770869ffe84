package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/pkg/enums"
)

// UsdCustomer is the counterparty ledger for dollar exchanges. ToPaid tracks
// what the customer still owes in CFA. Version increments on every mutating
// transition for optimistic concurrency; the tombstone fields are a separate
// concern.
type UsdCustomer struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID uuid.UUID            `gorm:"column:company_id;type:uuid;not null;index"`
	Name      string               `gorm:"column:name;not null"`
	Phone     string               `gorm:"column:phone"`
	ToPaid    decimal.Decimal      `gorm:"column:to_paid;type:numeric(18,2);not null;default:0"`
	Status    enums.CustomerStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Version   int64                `gorm:"column:version;not null;default:1"`
	DeletedAt *time.Time           `gorm:"column:deleted_at;index"`
	DeletedBy *uuid.UUID           `gorm:"column:deleted_by;type:uuid"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// IsDeleted reports whether the customer carries a tombstone.
func (u *UsdCustomer) IsDeleted() bool {
	return u.DeletedAt != nil
}
