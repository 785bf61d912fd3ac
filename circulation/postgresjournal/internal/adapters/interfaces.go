package adapters

import "context"

// DBAdapter is the subset of database operations the journal needs.
// Queries arrive fully interpolated, so no bind arguments are passed.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows iterates query results.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult reports the outcome of an Exec.
type DBResult interface {
	RowsAffected() (int64, error)
}
