// Package adapters lets the journal run on pgxpool.Pool, sql.DB or sqlx.DB
// through one small DBAdapter interface.
package adapters
