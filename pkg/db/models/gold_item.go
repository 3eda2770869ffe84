package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/pkg/enums"
)

// GoldItem is one weighed line of a buy operation. Density and karat are
// derived from the two weight measurements by the valuation engine before
// persistence; no stored value is recomputed on read.
type GoldItem struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyOperationID uuid.UUID           `gorm:"column:buy_operation_id;type:uuid;not null;index"`
	Base           string              `gorm:"column:base"`
	Weight         decimal.Decimal     `gorm:"column:weight;type:numeric(18,4);not null"`
	WaterWeight    decimal.Decimal     `gorm:"column:water_weight;type:numeric(18,4);not null"`
	Density        decimal.Decimal     `gorm:"column:density;type:numeric(8,2);not null"`
	Karat          decimal.Decimal     `gorm:"column:karat;type:numeric(4,1);not null"`
	PricePerGram   decimal.Decimal     `gorm:"column:price_per_gram;type:numeric(18,2);not null"`
	Value          decimal.Decimal     `gorm:"column:value;type:numeric(18,2);not null"`
	Situation      enums.GoldSituation `gorm:"column:situation;type:text;not null;default:'in stock'"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}
