package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/pkg/enums"
)

// RestorationEntry records one delete/restore cycle on a partner.
type RestorationEntry struct {
	DeletedAt  time.Time  `json:"deleted_at"`
	DeletedBy  uuid.UUID  `json:"deleted_by"`
	RestoredAt *time.Time `json:"restored_at,omitempty"`
	RestoredBy *uuid.UUID `json:"restored_by,omitempty"`
}

// Partner is the counterparty ledger for buy/sell/payment operations. Its
// balance tracks what the company owes the partner.
type Partner struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID          uuid.UUID          `gorm:"column:company_id;type:uuid;not null;index"`
	Name               string             `gorm:"column:name;not null"`
	Phone              string             `gorm:"column:phone"`
	Balance            decimal.Decimal    `gorm:"column:balance;type:numeric(18,2);not null;default:0"`
	Currency           enums.Currency     `gorm:"column:currency;type:text;not null;default:'FCFA'"`
	DeletedAt          *time.Time         `gorm:"column:deleted_at;index"`
	DeletedBy          *uuid.UUID         `gorm:"column:deleted_by;type:uuid"`
	RestorationHistory []RestorationEntry `gorm:"column:restoration_history;type:jsonb;serializer:json"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// IsDeleted reports whether the partner carries a tombstone.
func (p *Partner) IsDeleted() bool {
	return p.DeletedAt != nil
}
