// Package tablestore provides a minimal persistence port for named tables of
// string-keyed rows. The attendance data lives in a handful of small tables
// (users, classes, students, attendance) and every backend must expose the
// same whole-table read/replace contract: a write replaces the entire table
// and is never observable half-applied.
package tablestore

import "context"

// Row is a single table row keyed by column name.
type Row map[string]string

// Store reads and replaces whole named tables.
//
// ReadTable returns the rows in insertion order; a table that does not exist
// yet yields an empty slice, not an error. WriteTable replaces the full table
// contents atomically from the reader's point of view.
type Store interface {
	ReadTable(ctx context.Context, name string) ([]Row, error)
	WriteTable(ctx context.Context, name string, header []string, rows []Row) error
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
