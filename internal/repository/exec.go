package repository

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// target picks the caller's transaction when present and falls back to the pool.
func target(db *sqlx.DB, exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return db
}

// pageBounds normalises paging input into LIMIT/OFFSET values.
func pageBounds(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return size, (page - 1) * size
}

// whereClause joins conditions into a WHERE clause, or returns "" when there are none.
func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

// containsArg appends a case-insensitive contains condition for column.
func containsArg(conditions []string, args []interface{}, value string, columns ...string) ([]string, []interface{}) {
	args = append(args, value)
	placeholder := fmt.Sprintf("$%d", len(args))
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE '%%' || %s || '%%'", col, placeholder)
	}
	cond := parts[0]
	if len(parts) > 1 {
		cond = "(" + strings.Join(parts, " OR ") + ")"
	}
	return append(conditions, cond), args
}
