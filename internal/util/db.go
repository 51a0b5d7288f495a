package util

import "github.com/uptrace/bun"

// ApplyFieldUpdates copies a partial-update map onto a Bun update query,
// one SET clause per field.
func ApplyFieldUpdates(q *bun.UpdateQuery, fields map[string]any) *bun.UpdateQuery {
	for column, value := range fields {
		q = q.Set(column+" = ?", value)
	}
	return q
}
