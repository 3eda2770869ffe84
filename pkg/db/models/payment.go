package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/pkg/enums"
)

// Payment settles part of a buy operation. TotalAmount mirrors the
// operation's amount at payment time and Remain carries the running balance
// so a later payment can continue from it.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID   uuid.UUID           `gorm:"column:company_id;type:uuid;not null;index"`
	PartnerID   uuid.UUID           `gorm:"column:partner_id;type:uuid;not null;index"`
	OperationID uuid.UUID           `gorm:"column:operation_id;type:uuid;not null;index"`
	Operation   *BuyOperation       `gorm:"foreignKey:OperationID"`
	Amount      decimal.Decimal     `gorm:"column:amount;type:numeric(18,2);not null"`
	TotalAmount decimal.Decimal     `gorm:"column:total_amount;type:numeric(18,2);not null"`
	Remain      decimal.Decimal     `gorm:"column:remain;type:numeric(18,2);not null"`
	Method      enums.PaymentMethod `gorm:"column:method;type:text;not null;default:'cash'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}
