package storage

import (
	"database/sql"
	"strings"

	"taskflow/internal/models"
)

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// DueDateValue converts an optional due date to a nullable column value.
func DueDateValue(d *models.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// ParseDueDate converts a nullable column back into an optional date.
// Unparseable values are dropped.
func ParseDueDate(v sql.NullString) *models.Date {
	if !v.Valid || v.String == "" {
		return nil
	}
	raw := v.String
	if len(raw) > len(models.DateLayout) {
		raw = raw[:len(models.DateLayout)]
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &d
}
