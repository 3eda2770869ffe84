package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/pkg/enums"
)

// ShippingOperation exports the gold of one buy operation abroad. TotalWeight
// and TotalFees are computed once at creation from the buy operation's lines
// and the transport rate.
type ShippingOperation struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID      uuid.UUID            `gorm:"column:company_id;type:uuid;not null;index"`
	BuyOperationID uuid.UUID            `gorm:"column:buy_operation_id;type:uuid;not null;index"`
	BuyOperation   *BuyOperation        `gorm:"foreignKey:BuyOperationID"`
	TotalWeight    decimal.Decimal      `gorm:"column:total_weight;type:numeric(18,4);not null"`
	TransportRate  decimal.Decimal      `gorm:"column:transport_rate;type:numeric(18,2);not null"`
	TotalFees      decimal.Decimal      `gorm:"column:total_fees;type:numeric(18,2);not null"`
	Status         enums.ShippingStatus `gorm:"column:status;type:text;not null;default:'in progress'"`
	CanceledAt     *time.Time           `gorm:"column:canceled_at"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
