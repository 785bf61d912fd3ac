package config

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/AntonStoeckl/lending-registry-go/circulation"
	"github.com/AntonStoeckl/lending-registry-go/circulation/postgresjournal"
)

const (
	driverPostgres = "postgres"

	defaultMaxConnections    = int32(8)
	defaultMinConnections    = int32(2)
	defaultMaxConnLifetime   = time.Hour
	defaultMaxConnIdleTime   = time.Minute * 5
	defaultHealthCheckPeriod = time.Minute
	defaultConnectTimeout    = time.Second * 5
)

var (
	// ErrConnectingDatabaseFailed is returned when a database connection cannot be opened or pinged.
	ErrConnectingDatabaseFailed = errors.New("connecting database failed")

	// ErrJournalDisabled is returned by OpenJournal when the journal is not enabled.
	ErrJournalDisabled = errors.New("journal is disabled")
)

// PGXPoolConfig creates a pgxpool.Config for dsn.
func PGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Join(ErrConnectingDatabaseFailed, err)
	}

	dbConfig.MaxConns = defaultMaxConnections
	dbConfig.MinConns = defaultMinConnections
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return dbConfig, nil
}

// NewPGXPool opens and pings a pgx pool.
func NewPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	dbConfig, err := PGXPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, errors.Join(ErrConnectingDatabaseFailed, err)
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, errors.Join(ErrConnectingDatabaseFailed, pingErr)
	}

	return pool, nil
}

// NewSQLDB opens and pings a database/sql connection using lib/pq.
func NewSQLDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverPostgres, dsn)
	if err != nil {
		return nil, errors.Join(ErrConnectingDatabaseFailed, err)
	}

	configureSQLPool(db)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectingDatabaseFailed, pingErr)
	}

	return db, nil
}

// NewSQLX opens and pings a sqlx connection using lib/pq.
func NewSQLX(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driverPostgres, dsn)
	if err != nil {
		return nil, errors.Join(ErrConnectingDatabaseFailed, err)
	}

	configureSQLPool(db.DB)

	return db, nil
}

func configureSQLPool(db *sql.DB) {
	db.SetMaxOpenConns(int(defaultMaxConnections))
	db.SetMaxIdleConns(int(defaultMinConnections))
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)
}

// OpenJournal connects with the configured adapter and returns the journal plus a func that closes
// the connection. With CreateTable set, the journal table is created if missing.
func OpenJournal(ctx context.Context, cfg JournalConfig, logger circulation.Logger) (postgresjournal.Journal, func(), error) {
	if !cfg.Enabled {
		return postgresjournal.Journal{}, nil, ErrJournalDisabled
	}

	options := []postgresjournal.Option{postgresjournal.WithTableName(cfg.Table)}
	if logger != nil {
		options = append(options, postgresjournal.WithLogger(logger))
	}

	var (
		journal   postgresjournal.Journal
		closeConn func()
		err       error
	)

	switch cfg.Adapter {
	case AdapterSQL:
		db, connErr := NewSQLDB(ctx, cfg.DSN)
		if connErr != nil {
			return postgresjournal.Journal{}, nil, connErr
		}

		closeConn = func() { _ = db.Close() }
		journal, err = postgresjournal.NewJournalFromSQLDB(db, options...)

	case AdapterSQLX:
		db, connErr := NewSQLX(ctx, cfg.DSN)
		if connErr != nil {
			return postgresjournal.Journal{}, nil, connErr
		}

		closeConn = func() { _ = db.Close() }
		journal, err = postgresjournal.NewJournalFromSQLX(db, options...)

	default:
		pool, connErr := NewPGXPool(ctx, cfg.DSN)
		if connErr != nil {
			return postgresjournal.Journal{}, nil, connErr
		}

		closeConn = pool.Close
		journal, err = postgresjournal.NewJournalFromPGXPool(pool, options...)
	}

	if err != nil {
		closeConn()
		return postgresjournal.Journal{}, nil, err
	}

	if cfg.CreateTable {
		if createErr := journal.CreateTable(ctx); createErr != nil {
			closeConn()
			return postgresjournal.Journal{}, nil, createErr
		}
	}

	return journal, closeConn, nil
}
