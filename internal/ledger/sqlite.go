package ledger

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "ledger: sqlite exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS tabs (
	name       TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS cells (
	tab   TEXT NOT NULL REFERENCES tabs(name),
	row   INTEGER NOT NULL,
	col   INTEGER NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (tab, row, col)
);

CREATE INDEX IF NOT EXISTS idx_cells_tab_col ON cells(tab, col);
`

// Migrate creates the grid schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "ledger: sqlite migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) EnsureTab(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tabs (name) VALUES (?) ON CONFLICT(name) DO NOTHING`,
		name,
	)
	return eris.Wrapf(err, "ledger: sqlite ensure tab %s", name)
}

func (s *SQLiteStore) ReadColumn(ctx context.Context, tab string, rowStart, rowEnd, col int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row, value FROM cells WHERE tab = ? AND col = ? AND row BETWEEN ? AND ?`,
		tab, col, rowStart, rowEnd,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "ledger: sqlite read column %s", tab)
	}
	defer rows.Close()

	out := make([]string, rowEnd-rowStart+1)
	for rows.Next() {
		var row int
		var value string
		if err := rows.Scan(&row, &value); err != nil {
			return nil, eris.Wrap(err, "ledger: sqlite scan cell")
		}
		if row >= rowStart && row <= rowEnd {
			out[row-rowStart] = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "ledger: sqlite iterate cells")
	}
	return out, nil
}

func (s *SQLiteStore) WriteRow(ctx context.Context, tab string, row int, values []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "ledger: sqlite begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cells WHERE tab = ? AND row = ?`, tab, row,
	); err != nil {
		return eris.Wrapf(err, "ledger: sqlite clear row %d", row)
	}
	for i, v := range values {
		if v == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cells (tab, row, col, value) VALUES (?, ?, ?, ?)`,
			tab, row, i+1, v,
		); err != nil {
			return eris.Wrapf(err, "ledger: sqlite write cell %d/%d", row, i+1)
		}
	}
	return eris.Wrap(tx.Commit(), "ledger: sqlite commit row write")
}

func (s *SQLiteStore) AppendRow(ctx context.Context, tab string, values []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "ledger: sqlite begin")
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row), 0) + 1 FROM cells WHERE tab = ?`, tab,
	).Scan(&next); err != nil {
		return eris.Wrapf(err, "ledger: sqlite next row %s", tab)
	}
	for i, v := range values {
		if v == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cells (tab, row, col, value) VALUES (?, ?, ?, ?)`,
			tab, next, i+1, v,
		); err != nil {
			return eris.Wrapf(err, "ledger: sqlite append cell %d/%d", next, i+1)
		}
	}
	return eris.Wrap(tx.Commit(), "ledger: sqlite commit append")
}
