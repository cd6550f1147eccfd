package location

import (
	"strings"

	"gorm.io/gorm"
)

// gorm scopes shared by the list endpoints. Kept portable across Postgres
// and sqlite: case-insensitive matching goes through UPPER(...) LIKE
// instead of ILIKE.

// ActiveOnly keeps rows that have not been soft-deleted.
func ActiveOnly() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("active = ?", true)
	}
}

// SearchName adds a case-insensitive partial match on the name column.
// A blank term is a no-op.
func SearchName(term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" {
			return db
		}
		return db.Where("UPPER(name) LIKE UPPER(?)", "%"+term+"%")
	}
}

// OrderBy applies a caller-supplied ordering of the form "name" or "-name".
// Columns outside the allow-list are ignored rather than interpolated.
func OrderBy(spec string, allowed ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if spec == "" {
			return db
		}
		desc := strings.HasPrefix(spec, "-")
		col := strings.TrimPrefix(spec, "-")
		for _, a := range allowed {
			if col == a {
				if desc {
					return db.Order(col + " DESC")
				}
				return db.Order(col + " ASC")
			}
		}
		return db
	}
}

// Paginate applies page/limit windowing. Page numbering starts at 1.
func Paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}
