package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/pkg/enums"
)

// BuyOperation records a purchase of physical gold from a partner. Amount is
// the sum of its line values; AmountPaid never exceeds Amount (the payment
// engine enforces it).
type BuyOperation struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID      uuid.UUID                 `gorm:"column:company_id;type:uuid;not null;index"`
	PartnerID      uuid.UUID                 `gorm:"column:partner_id;type:uuid;not null;index"`
	Partner        *Partner                  `gorm:"foreignKey:PartnerID"`
	Currency       enums.Currency            `gorm:"column:currency;type:text;not null"`
	Amount         decimal.Decimal           `gorm:"column:amount;type:numeric(18,2);not null"`
	AmountPaid     decimal.Decimal           `gorm:"column:amount_paid;type:numeric(18,2);not null;default:0"`
	PaymentStatus  enums.PaymentStatus       `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	Status         enums.BuyOperationStatus  `gorm:"column:status;type:text;not null;default:'pending'"`
	Golds          []GoldItem                `gorm:"foreignKey:BuyOperationID;constraint:OnDelete:CASCADE"`
	ArchivedAt     *time.Time                `gorm:"column:archived_at"`
	ArchivedReason *string                   `gorm:"column:archived_reason"`
	PreviousStatus *enums.BuyOperationStatus `gorm:"column:previous_status;type:text"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// RemainingAmount returns how much of the operation is still unsettled.
func (b *BuyOperation) RemainingAmount() decimal.Decimal {
	return b.Amount.Sub(b.AmountPaid)
}

// PaymentStatusFor derives the payment status a buy operation must carry
// after a settlement: paid when fully settled, partially paid when some but
// not all of the amount is covered, pending otherwise.
func PaymentStatusFor(amountPaid, amount decimal.Decimal) enums.PaymentStatus {
	switch {
	case amount.GreaterThan(decimal.Zero) && amountPaid.GreaterThanOrEqual(amount):
		return enums.PaymentStatusPaid
	case amountPaid.GreaterThan(decimal.Zero):
		return enums.PaymentStatusPartiallyPaid
	default:
		return enums.PaymentStatusPending
	}
}
