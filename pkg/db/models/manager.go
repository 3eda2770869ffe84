package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Bbt3-alx/akera-backend/pkg/enums"
)

// Manager is the authenticated actor operating a company's ledger. Identity
// and credentials live in the external provider; this row only links the
// actor to its company.
type Manager struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string            `gorm:"column:email;not null;uniqueIndex"`
	Name      string            `gorm:"column:name"`
	Role      enums.ManagerRole `gorm:"column:role;type:text;not null;default:'manager'"`
	CompanyID *uuid.UUID        `gorm:"column:company_id;type:uuid;index"`
	Company   *Company          `gorm:"foreignKey:CompanyID"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
