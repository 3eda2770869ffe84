package repo

import (
	"gorm.io/gorm"

	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

// KeysetAfter narrows a query to rows strictly older than the cursor
// position. Pages order by (created_at, id) descending, so rows sharing a
// created_at are tie-broken by id. A nil cursor means the first page.
func KeysetAfter(cursor *pkgpagination.Cursor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if cursor == nil {
			return db
		}
		return db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
}

// KeysetOrder applies the ordering KeysetAfter pages through.
func KeysetOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
