package database

import (
	"database/sql"
	"fmt"
)

// ScanStrings reads the current row into dst, one string per column.
// NULL columns scan as the empty string. The row must have exactly
// len(dst) columns.
//
// dst is overwritten in place so callers can reuse one buffer for every row.
func ScanStrings(rows Rows, dst []string) error {
	cols := make([]sql.NullString, len(dst))
	ptrs := make([]any, len(dst))
	for i := range cols {
		ptrs[i] = &cols[i]
	}

	if err := rows.Scan(ptrs...); err != nil {
		return err
	}

	for i, c := range cols {
		dst[i] = c.String
	}
	return nil
}

// CheckColumns verifies that the result set has exactly want columns.
func CheckColumns(rows Rows, want int) error {
	names, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("read column names: %w", err)
	}
	if len(names) != want {
		return fmt.Errorf("wrong number of columns in resultset: got %d, want %d", len(names), want)
	}
	return nil
}
