package postgresjournal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
	"github.com/AntonStoeckl/lending-registry-go/circulation/postgresjournal/internal/adapters"
)

const (
	defaultTableName = "lending_events"

	dialectPostgres   = "postgres"
	colSequenceNumber = "sequence_number"
	colEventType      = "event_type"
	colOccurredAt     = "occurred_at"
	colPayload        = "payload"
	colMetadata       = "metadata"
	castJsonb         = "?::jsonb"
	containsJsonb     = colPayload + " @> ?::jsonb"

	payloadFieldPatronID = "PatronID"
	payloadFieldISBN     = "ISBN"

	logMsgSQLExecuted       = "journal sql executed: "
	logMsgBuildQueryFailed  = "journal failed to build query"
	logMsgEncodeFailed      = "journal failed to encode event"
	logMsgExecFailed        = "journal insert failed"
	logMsgQueryFailed       = "journal query failed"
	logMsgScanFailed        = "journal failed to scan row"
	logMsgCloseRowsFailed   = "journal failed to close rows"
	logMsgCreateTableFailed = "journal failed to create table"

	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrEventType  = "event_type"
	logAttrDurationMS = "duration_ms"

	logActionRecord      = "record"
	logActionQuery       = "query"
	logActionCreateTable = "create table"
)

const createTableSQLTemplate = `CREATE TABLE IF NOT EXISTS %[1]s (
    %[2]s BIGSERIAL PRIMARY KEY,
    %[3]s TEXT NOT NULL,
    %[4]s TIMESTAMPTZ NOT NULL,
    %[5]s JSONB NOT NULL,
    %[6]s JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_event_type_idx ON %[1]s (%[3]s);
CREATE INDEX IF NOT EXISTS %[1]s_payload_idx ON %[1]s USING GIN (%[5]s jsonb_path_ops);`

// Journal records circulation domain events in PostgreSQL. It implements circulation.Journal.
type Journal struct {
	db        adapters.DBAdapter
	tableName string
	logger    circulation.Logger
	newID     func() string
}

// NewJournalFromPGXPool creates a Journal on a pgx pool.
func NewJournalFromPGXPool(db *pgxpool.Pool, options ...Option) (Journal, error) {
	if db == nil {
		return Journal{}, ErrNilDatabaseConnection
	}

	return newJournal(adapters.NewPGXAdapter(db), options...)
}

// NewJournalFromSQLDB creates a Journal on a database/sql connection.
func NewJournalFromSQLDB(db *sql.DB, options ...Option) (Journal, error) {
	if db == nil {
		return Journal{}, ErrNilDatabaseConnection
	}

	return newJournal(adapters.NewSQLAdapter(db), options...)
}

// NewJournalFromSQLX creates a Journal on a sqlx connection.
func NewJournalFromSQLX(db *sqlx.DB, options ...Option) (Journal, error) {
	if db == nil {
		return Journal{}, ErrNilDatabaseConnection
	}

	return newJournal(adapters.NewSQLXAdapter(db), options...)
}

func newJournal(db adapters.DBAdapter, options ...Option) (Journal, error) {
	j := Journal{
		db:        db,
		tableName: defaultTableName,
		newID:     func() string { return uuid.NewString() },
	}

	for _, option := range options {
		if err := option(&j); err != nil {
			return Journal{}, err
		}
	}

	return j, nil
}

// TableName returns the journal table's name.
func (j Journal) TableName() string {
	return j.tableName
}

// CreateTableSQL returns the DDL for a journal table with the given name.
func CreateTableSQL(tableName string) string {
	return fmt.Sprintf(createTableSQLTemplate,
		tableName, colSequenceNumber, colEventType, colOccurredAt, colPayload, colMetadata)
}

// CreateTable creates the journal table and its indexes if they do not exist.
func (j Journal) CreateTable(ctx context.Context) error {
	ddl := CreateTableSQL(j.tableName)

	start := time.Now()
	_, err := j.db.Exec(ctx, ddl)
	j.logSQL(logActionCreateTable, ddl, time.Since(start))

	if err != nil {
		j.logError(logMsgCreateTableFailed, logAttrError, err.Error())
		return errors.Join(ErrCreatingTableFailed, err)
	}

	return nil
}

// Record appends event as one row.
func (j Journal) Record(ctx context.Context, event circulation.DomainEvent) error {
	payload, err := jsoniter.ConfigFastest.Marshal(event)
	if err != nil {
		j.logError(logMsgEncodeFailed, logAttrError, err.Error(), logAttrEventType, event.EventType())
		return errors.Join(ErrEncodingEventFailed, err)
	}

	metadata, err := jsoniter.ConfigFastest.Marshal(j.metadataFor(ctx))
	if err != nil {
		j.logError(logMsgEncodeFailed, logAttrError, err.Error(), logAttrEventType, event.EventType())
		return errors.Join(ErrEncodingEventFailed, err)
	}

	sqlQuery, err := j.buildInsertQuery(event, payload, metadata)
	if err != nil {
		return err
	}

	start := time.Now()
	_, execErr := j.db.Exec(ctx, sqlQuery)
	j.logSQL(logActionRecord, sqlQuery, time.Since(start))

	if execErr != nil {
		j.logError(logMsgExecFailed, logAttrError, execErr.Error(), logAttrEventType, event.EventType())
		return errors.Join(ErrRecordingEventFailed, execErr)
	}

	return nil
}

func (j Journal) metadataFor(ctx context.Context) Metadata {
	eventID := j.newID()

	correlationID, ok := CorrelationIDFrom(ctx)
	if !ok {
		correlationID = eventID
	}

	return Metadata{EventID: eventID, CorrelationID: correlationID}
}

func (j Journal) buildInsertQuery(event circulation.DomainEvent, payload, metadata []byte) (string, error) {
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(j.tableName).
		Cols(colEventType, colOccurredAt, colPayload, colMetadata).
		Vals(goqu.Vals{
			event.EventType(),
			event.HasOccurredAt().UTC(),
			goqu.L(castJsonb, string(payload)),
			goqu.L(castJsonb, string(metadata)),
		})

	sqlQuery, _, err := insertStmt.ToSQL()
	if err != nil {
		j.logError(logMsgBuildQueryFailed, logAttrError, err.Error(), logAttrEventType, event.EventType())
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// Query returns the rows matching filter in recording order.
func (j Journal) Query(ctx context.Context, filter Filter) (StoredEvents, error) {
	sqlQuery, err := j.buildSelectQuery(filter)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, queryErr := j.db.Query(ctx, sqlQuery)
	j.logSQL(logActionQuery, sqlQuery, time.Since(start))

	if queryErr != nil {
		j.logError(logMsgQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return nil, errors.Join(ErrQueryingEventsFailed, queryErr)
	}
	defer j.closeRows(rows)

	return j.scanRows(rows)
}

func (j Journal) scanRows(rows adapters.DBRows) (StoredEvents, error) {
	events := make(StoredEvents, 0)

	for rows.Next() {
		var (
			event    StoredEvent
			metadata []byte
		)

		if err := rows.Scan(&event.SequenceNumber, &event.EventType, &event.OccurredAt, &event.PayloadJSON, &metadata); err != nil {
			j.logError(logMsgScanFailed, logAttrError, err.Error())
			return nil, errors.Join(ErrScanningRowFailed, err)
		}

		if err := jsoniter.ConfigFastest.Unmarshal(metadata, &event.Metadata); err != nil {
			j.logError(logMsgScanFailed, logAttrError, err.Error(), logAttrEventType, event.EventType)
			return nil, errors.Join(ErrScanningRowFailed, err)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		j.logError(logMsgQueryFailed, logAttrError, err.Error())
		return nil, errors.Join(ErrQueryingEventsFailed, err)
	}

	return events, nil
}

func (j Journal) buildSelectQuery(filter Filter) (string, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(j.tableName).
		Select(colSequenceNumber, colEventType, colOccurredAt, colPayload, colMetadata).
		Order(goqu.I(colSequenceNumber).Asc())

	conditions, err := whereConditions(filter)
	if err != nil {
		return "", err
	}

	if len(conditions) > 0 {
		selectStmt = selectStmt.Where(goqu.And(conditions...))
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		j.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func whereConditions(filter Filter) ([]goqu.Expression, error) {
	conditions := make([]goqu.Expression, 0)

	if len(filter.EventTypes) > 0 {
		conditions = append(conditions, goqu.C(colEventType).In(filter.EventTypes))
	}

	containments := []struct{ field, value string }{
		{payloadFieldPatronID, filter.PatronID},
		{payloadFieldISBN, filter.ISBN},
	}

	for _, c := range containments {
		if c.value == "" {
			continue
		}

		containment, err := jsoniter.ConfigFastest.Marshal(map[string]string{c.field: c.value})
		if err != nil {
			return nil, errors.Join(ErrBuildingQueryFailed, err)
		}

		conditions = append(conditions, goqu.L(containsJsonb, string(containment)))
	}

	if !filter.OccurredFrom.IsZero() {
		conditions = append(conditions, goqu.C(colOccurredAt).Gte(filter.OccurredFrom.UTC()))
	}

	if !filter.OccurredUntil.IsZero() {
		conditions = append(conditions, goqu.C(colOccurredAt).Lte(filter.OccurredUntil.UTC()))
	}

	return conditions, nil
}

func (j Journal) closeRows(rows adapters.DBRows) {
	if err := rows.Close(); err != nil && j.logger != nil {
		j.logger.Warn(logMsgCloseRowsFailed, logAttrError, err.Error())
	}
}

func (j Journal) logSQL(action, sqlQuery string, duration time.Duration) {
	if j.logger != nil {
		j.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

func (j Journal) logError(msg string, args ...any) {
	if j.logger != nil {
		j.logger.Error(msg, args...)
	}
}

// toMilliseconds converts d to milliseconds rounded to 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

var _ circulation.Journal = Journal{}
