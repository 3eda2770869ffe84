package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	companies := `
CREATE TABLE IF NOT EXISTS companies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  cash_balance NUMERIC NOT NULL DEFAULT 0,
  usd_balance NUMERIC NOT NULL DEFAULT 0,
  remain_weight NUMERIC NOT NULL DEFAULT 0,
  total_weight_expedited NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'FCFA',
  created_at DATETIME,
  updated_at DATETIME
);`
	partners := `
CREATE TABLE IF NOT EXISTS partners (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT,
  balance NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'FCFA',
  deleted_at DATETIME,
  deleted_by TEXT,
  restoration_history TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	customers := `
CREATE TABLE IF NOT EXISTS usd_customers (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT,
  to_paid NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  version INTEGER NOT NULL DEFAULT 1,
  deleted_at DATETIME,
  deleted_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, ddl := range []string{companies, partners, customers} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func TestAdjustCompanyAppliesOnlyNonZeroDeltas(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	company := models.Company{ID: uuid.New(), Name: "Akera Gold"}
	require.NoError(t, db.Create(&company).Error)

	delta := CompanyDelta{
		Cash:         decimal.NewFromInt(-22500),
		RemainWeight: decimal.RequireFromString("150"),
	}
	require.NoError(t, repo.AdjustCompany(ctx, company.ID, delta))
	require.NoError(t, repo.AdjustCompany(ctx, company.ID, CompanyDelta{}))

	got, err := repo.FindCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.True(t, got.CashBalance.Equal(decimal.NewFromInt(-22500)))
	assert.True(t, got.RemainWeight.Equal(decimal.RequireFromString("150")))
	assert.True(t, got.UsdBalance.IsZero())
	assert.True(t, got.TotalWeightExpedited.IsZero())
}

func TestAdjustPartnerBalanceComposesDeltas(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	company := models.Company{ID: uuid.New(), Name: "Akera Gold"}
	require.NoError(t, db.Create(&company).Error)
	partner := models.Partner{ID: uuid.New(), CompanyID: company.ID, Name: "Mamadou"}
	require.NoError(t, db.Create(&partner).Error)

	require.NoError(t, repo.AdjustPartnerBalance(ctx, partner.ID, decimal.NewFromInt(1000)))
	require.NoError(t, repo.AdjustPartnerBalance(ctx, partner.ID, decimal.NewFromInt(-400)))

	var got models.Partner
	require.NoError(t, db.First(&got, "id = ?", partner.ID).Error)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(600)), "balance = %s", got.Balance)
}

func TestAdjustCustomerToPaidBumpsVersion(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	company := models.Company{ID: uuid.New(), Name: "Akera Gold"}
	require.NoError(t, db.Create(&company).Error)
	customer := models.UsdCustomer{ID: uuid.New(), CompanyID: company.ID, Name: "Fanta", Version: 1}
	require.NoError(t, db.Create(&customer).Error)

	require.NoError(t, repo.AdjustCustomerToPaid(ctx, customer.ID, decimal.NewFromInt(6550)))

	var got models.UsdCustomer
	require.NoError(t, db.First(&got, "id = ?", customer.ID).Error)
	assert.True(t, got.ToPaid.Equal(decimal.NewFromInt(6550)))
	assert.Equal(t, int64(2), got.Version)
}
