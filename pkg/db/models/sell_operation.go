package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/pkg/enums"
)

// SellOperation liquidates held gold for USD. WeightGrams and TroyOunces are
// normalized from the entered weight/unit pair at creation.
type SellOperation struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID   uuid.UUID        `gorm:"column:company_id;type:uuid;not null;index"`
	Weight      decimal.Decimal  `gorm:"column:weight;type:numeric(18,4);not null"`
	Unit        enums.WeightUnit `gorm:"column:unit;type:text;not null"`
	WeightGrams decimal.Decimal  `gorm:"column:weight_grams;type:numeric(18,4);not null"`
	TroyOunces  decimal.Decimal  `gorm:"column:troy_ounces;type:numeric(18,6);not null"`
	Rate        decimal.Decimal  `gorm:"column:rate;type:numeric(18,2);not null"`
	Amount      decimal.Decimal  `gorm:"column:amount;type:numeric(18,2);not null"`
	DeletedAt   *time.Time       `gorm:"column:deleted_at;index"`
	DeletedBy   *uuid.UUID       `gorm:"column:deleted_by;type:uuid"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// IsDeleted reports whether the sell operation carries a tombstone.
func (s *SellOperation) IsDeleted() bool {
	return s.DeletedAt != nil
}
