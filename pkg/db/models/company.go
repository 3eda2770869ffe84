package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Company is the root ledger for one business tenant. Balance columns are the
// system of record for money and weight and only change through delta writes
// inside a transaction.
type Company struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string          `gorm:"column:name;not null"`
	CashBalance          decimal.Decimal `gorm:"column:cash_balance;type:numeric(18,2);not null;default:0"`
	UsdBalance           decimal.Decimal `gorm:"column:usd_balance;type:numeric(18,2);not null;default:0"`
	RemainWeight         decimal.Decimal `gorm:"column:remain_weight;type:numeric(18,4);not null;default:0"`
	TotalWeightExpedited decimal.Decimal `gorm:"column:total_weight_expedited;type:numeric(18,4);not null;default:0"`
	Currency             string          `gorm:"column:currency;type:text;not null;default:'FCFA'"`
	Partners             []Partner       `gorm:"foreignKey:CompanyID"`
	UsdCustomers         []UsdCustomer   `gorm:"foreignKey:CompanyID"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
