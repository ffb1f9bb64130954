// Package repository implements the data access layer for the application.
package repository

import (
	"fmt"
	"strings"

	"userdata/internal/database"
	"userdata/internal/models"

	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// userSortColumns maps sortable API properties to user columns.
var userSortColumns = map[string]string{
	"username":  "users.username",
	"firstname": "users.firstname",
	"surname":   "users.surname",
	"fullname":  "users.full_name",
	"currency":  "users.currency",
}

// orderClauses translates a sort specification into ORDER BY fragments.
// Unknown properties are rejected; no sort means username order.
func orderClauses(sort []models.SortOrder) ([]string, error) {
	if len(sort) == 0 {
		return []string{"users.username ASC"}, nil
	}
	clauses := make([]string, 0, len(sort))
	for _, o := range sort {
		column, ok := userSortColumns[strings.ToLower(o.Property)]
		if !ok {
			return nil, models.NewValidationError(fmt.Sprintf("Unsupported sort property %q", o.Property))
		}
		dir := models.Asc
		if o.Direction == models.Desc {
			dir = models.Desc
		}
		clauses = append(clauses, column+" "+string(dir))
	}
	return clauses, nil
}

// searchPattern returns a lower-cased LIKE pattern, or "" for a blank query.
func searchPattern(searchQuery *string) string {
	if searchQuery == nil {
		return ""
	}
	q := strings.TrimSpace(*searchQuery)
	if q == "" {
		return ""
	}
	return "%" + strings.ToLower(q) + "%"
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
