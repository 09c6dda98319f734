package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it for
// unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: postgres parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: postgres connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS tabs (
	name       TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
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
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "ledger: postgres migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) EnsureTab(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tabs (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
		name,
	)
	return eris.Wrapf(err, "ledger: postgres ensure tab %s", name)
}

func (s *PostgresStore) ReadColumn(ctx context.Context, tab string, rowStart, rowEnd, col int) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT row, value FROM cells WHERE tab = $1 AND col = $2 AND row BETWEEN $3 AND $4`,
		tab, col, rowStart, rowEnd,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "ledger: postgres read column %s", tab)
	}
	defer rows.Close()

	out := make([]string, rowEnd-rowStart+1)
	for rows.Next() {
		var row int
		var value string
		if err := rows.Scan(&row, &value); err != nil {
			return nil, eris.Wrap(err, "ledger: postgres scan cell")
		}
		if row >= rowStart && row <= rowEnd {
			out[row-rowStart] = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "ledger: postgres iterate cells")
	}
	return out, nil
}

func (s *PostgresStore) WriteRow(ctx context.Context, tab string, row int, values []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "ledger: postgres begin")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM cells WHERE tab = $1 AND row = $2`, tab, row,
	); err != nil {
		return eris.Wrapf(err, "ledger: postgres clear row %d", row)
	}
	for i, v := range values {
		if v == "" {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO cells (tab, row, col, value) VALUES ($1, $2, $3, $4)`,
			tab, row, i+1, v,
		); err != nil {
			return eris.Wrapf(err, "ledger: postgres write cell %d/%d", row, i+1)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "ledger: postgres commit row write")
}

func (s *PostgresStore) AppendRow(ctx context.Context, tab string, values []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "ledger: postgres begin")
	}
	defer tx.Rollback(ctx)

	var next int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(row), 0) + 1 FROM cells WHERE tab = $1`, tab,
	).Scan(&next); err != nil {
		return eris.Wrapf(err, "ledger: postgres next row %s", tab)
	}
	for i, v := range values {
		if v == "" {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO cells (tab, row, col, value) VALUES ($1, $2, $3, $4)`,
			tab, next, i+1, v,
		); err != nil {
			return eris.Wrapf(err, "ledger: postgres append cell %d/%d", next, i+1)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "ledger: postgres commit append")
}
