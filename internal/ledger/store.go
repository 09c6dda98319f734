// Package ledger provides the shared spreadsheet-like store the promotion
// reconciler reads and writes. A store is a set of named tabs, each a sparse
// grid of rows and columns addressed from 1. SQLite, Postgres, and in-memory
// implementations all satisfy the same interface.
package ledger

import "context"

// Store is the consumed ledger capability. Each call is a single atomic
// operation against the backing store; the read-then-decide-then-write
// sequence built on top of it is not transactional.
type Store interface {
	// EnsureTab creates the named tab if it does not exist. Idempotent.
	EnsureTab(ctx context.Context, name string) error

	// ReadColumn returns the cell values of one column for the inclusive row
	// range [rowStart, rowEnd], in row order. Missing cells read as "".
	ReadColumn(ctx context.Context, tab string, rowStart, rowEnd, col int) ([]string, error)

	// WriteRow replaces the content of one row starting at column 1.
	WriteRow(ctx context.Context, tab string, row int, values []string) error

	// AppendRow writes values into the first row past the tab's current
	// extent.
	AppendRow(ctx context.Context, tab string, values []string) error

	// Close releases the backing resources.
	Close() error
}
