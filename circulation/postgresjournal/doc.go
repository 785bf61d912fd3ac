// Package postgresjournal records the Registry's domain events in a PostgreSQL table.
//
// The journal is an append-only audit trail. The Registry never reads it back, so it is not
// a persistence layer: restarting the process starts from an empty Registry.
//
// It works with three connection types:
//   - pgx: NewJournalFromPGXPool
//   - database/sql (e.g. lib/pq): NewJournalFromSQLDB
//   - sqlx: NewJournalFromSQLX
//
// Each event becomes one row. The payload column holds the event's JSON encoding; the metadata
// column holds a generated event id and the correlation id found in the context
// (see WithCorrelationID), falling back to the event id.
//
// Use CreateTableSQL, or Journal.CreateTable, to set up the table.
package postgresjournal
