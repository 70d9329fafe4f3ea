package persistence

import (
	"strings"

	"github.com/marketplace/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxPageSize = 100

// applyFilter adds ordering and pagination to a query. The order column is
// quoted through the clause builder so filter input cannot inject SQL.
func applyFilter(q *gorm.DB, f shared.Filter) *gorm.DB {
	orderBy := f.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 || size > maxPageSize {
		size = shared.DefaultFilter().PageSize
	}
	return q.
		Order(clause.OrderByColumn{
			Column: clause.Column{Name: orderBy},
			Desc:   !strings.EqualFold(f.OrderDir, "asc"),
		}).
		Offset((page - 1) * size).
		Limit(size)
}
