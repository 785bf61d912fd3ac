package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for database/sql, e.g. with the lib/pq driver.
type SQLAdapter struct {
	db *sql.DB
}

// NewSQLAdapter wraps db.
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

// Query runs a read query.
func (s *SQLAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return stdRows{rows: rows}, nil
}

// Exec runs a statement.
func (s *SQLAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	return s.db.ExecContext(ctx, query)
}

// stdRows adapts *sql.Rows, which sqlx also returns.
type stdRows struct {
	rows *sql.Rows
}

func (r stdRows) Next() bool { return r.rows.Next() }

func (r stdRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }

func (r stdRows) Err() error { return r.rows.Err() }

func (r stdRows) Close() error { return r.rows.Close() }
