package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

type keysetRow struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey"`
	Label     string    `gorm:"column:label"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (keysetRow) TableName() string { return "keyset_rows" }

func setupKeysetTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS keyset_rows (
  id TEXT PRIMARY KEY,
  label TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestKeysetAfterNilCursorReturnsFirstPage(t *testing.T) {
	db := setupKeysetTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, label := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, db.Create(&keysetRow{
			ID:        uuid.New(),
			Label:     label,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	var rows []keysetRow
	err := db.WithContext(context.Background()).Model(&keysetRow{}).
		Scopes(KeysetAfter(nil), KeysetOrder).
		Find(&rows).Error
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "newest", rows[0].Label)
	assert.Equal(t, "oldest", rows[2].Label)
}

func TestKeysetAfterSkipsRowsAtAndBeforeCursor(t *testing.T) {
	db := setupKeysetTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var inserted []keysetRow
	for i := 0; i < 3; i++ {
		row := keysetRow{ID: uuid.New(), Label: "row", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, db.Create(&row).Error)
		inserted = append(inserted, row)
	}

	cursor := &pkgpagination.Cursor{CreatedAt: inserted[1].CreatedAt, ID: inserted[1].ID}
	var rows []keysetRow
	err := db.Model(&keysetRow{}).
		Scopes(KeysetAfter(cursor), KeysetOrder).
		Find(&rows).Error
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, inserted[0].ID, rows[0].ID)
}

func TestKeysetAfterBreaksCreatedAtTiesByID(t *testing.T) {
	db := setupKeysetTestDB(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	low := keysetRow{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Label: "low", CreatedAt: at}
	high := keysetRow{ID: uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff"), Label: "high", CreatedAt: at}
	require.NoError(t, db.Create(&low).Error)
	require.NoError(t, db.Create(&high).Error)

	cursor := &pkgpagination.Cursor{CreatedAt: at, ID: high.ID}
	var rows []keysetRow
	err := db.Model(&keysetRow{}).
		Scopes(KeysetAfter(cursor), KeysetOrder).
		Find(&rows).Error
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "low", rows[0].Label)
}
