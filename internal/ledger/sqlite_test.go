package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteEnsureTabIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTab(ctx, "Dashboard"))
	require.NoError(t, s.EnsureTab(ctx, "Dashboard"))
}

func TestSQLiteWriteAndReadColumn(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTab(ctx, "Dashboard"))
	require.NoError(t, s.WriteRow(ctx, "Dashboard", 2, []string{"AAPL", "180.00", "200.00"}))
	require.NoError(t, s.WriteRow(ctx, "Dashboard", 4, []string{"MSFT", "410.00"}))

	col, err := s.ReadColumn(ctx, "Dashboard", 2, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "", "MSFT", ""}, col)

	col, err = s.ReadColumn(ctx, "Dashboard", 2, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"180.00", "", "410.00", ""}, col)
}

func TestSQLiteWriteRowReplaces(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTab(ctx, "Dashboard"))
	require.NoError(t, s.WriteRow(ctx, "Dashboard", 2, []string{"AAPL", "180.00", "200.00"}))

	// Rewrite with fewer columns: stale cells must not survive.
	require.NoError(t, s.WriteRow(ctx, "Dashboard", 2, []string{"AAPL", "175.00"}))

	col, err := s.ReadColumn(ctx, "Dashboard", 2, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, col)

	col, err = s.ReadColumn(ctx, "Dashboard", 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"175.00"}, col)
}

func TestSQLiteWriteRowSkipsEmptyCells(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTab(ctx, "Dashboard"))
	require.NoError(t, s.WriteRow(ctx, "Dashboard", 2, []string{"AAPL", "", "200.00"}))

	col, err := s.ReadColumn(ctx, "Dashboard", 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, col)
}

func TestSQLiteAppendRow(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTab(ctx, "Log"))
	require.NoError(t, s.WriteRow(ctx, "Log", 1, []string{"Header"}))
	require.NoError(t, s.AppendRow(ctx, "Log", []string{"first"}))
	require.NoError(t, s.AppendRow(ctx, "Log", []string{"second"}))

	col, err := s.ReadColumn(ctx, "Log", 1, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Header", "first", "second"}, col)
}

func TestSQLiteAppendRowEmptyTab(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTab(ctx, "Log"))
	require.NoError(t, s.AppendRow(ctx, "Log", []string{"first"}))

	col, err := s.ReadColumn(ctx, "Log", 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, col)
}

func TestSQLiteTabsAreIsolated(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTab(ctx, "A"))
	require.NoError(t, s.EnsureTab(ctx, "B"))
	require.NoError(t, s.WriteRow(ctx, "A", 1, []string{"only in A"}))

	col, err := s.ReadColumn(ctx, "B", 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, col)
}
