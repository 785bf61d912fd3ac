package postgresjournal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
	"github.com/AntonStoeckl/lending-registry-go/circulation/postgresjournal/internal/adapters"
	"github.com/AntonStoeckl/lending-registry-go/testutil/testdoubles"
)

var occurredAt = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeDB struct {
	statements []string
	rows       [][]any
	execErr    error
	queryErr   error
	rowsErr    error
}

func (f *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	f.statements = append(f.statements, query)
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	return &fakeRows{rows: f.rows, cursor: -1, err: f.rowsErr}, nil
}

func (f *fakeDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	f.statements = append(f.statements, query)
	if f.execErr != nil {
		return nil, f.execErr
	}

	return fakeResult{}, nil
}

func (f *fakeDB) lastStatement() string {
	if len(f.statements) == 0 {
		return ""
	}

	return f.statements[len(f.statements)-1]
}

type fakeRows struct {
	rows   [][]any
	cursor int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	r.cursor++
	return r.cursor < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.cursor]
	if len(row) != len(dest) {
		return fmt.Errorf("expected %d destinations, got %d", len(row), len(dest))
	}

	for i, value := range row {
		switch d := dest[i].(type) {
		case *int64:
			*d = value.(int64)
		case *string:
			*d = value.(string)
		case *time.Time:
			*d = value.(time.Time)
		case *[]byte:
			*d = []byte(value.(string))
		default:
			return fmt.Errorf("unsupported destination %T", d)
		}
	}

	return nil
}

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

type fakeResult struct{}

func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

func newTestJournal(t *testing.T, db *fakeDB, options ...Option) Journal {
	t.Helper()

	journal, err := newJournal(db, options...)
	require.NoError(t, err)
	journal.newID = func() string { return "event-1" }

	return journal
}

func bookLent() circulation.BookLent {
	return circulation.BookLent{
		TransactionID: "TRANS-1",
		PatronID:      "S1",
		ISBN:          "978-0",
		Title:         "Dune",
		BorrowedOn:    "2025-03-01",
		DueOn:         "2025-03-15",
		OccurredAt:    occurredAt,
	}
}

func Test_Constructors_RejectNilConnections(t *testing.T) {
	_, err := NewJournalFromPGXPool(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)

	_, err = NewJournalFromSQLDB(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)

	_, err = NewJournalFromSQLX(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)
}

func Test_WithTableName(t *testing.T) {
	testCases := []struct {
		name      string
		tableName string
		wantErr   error
	}{
		{name: "plain identifier", tableName: "audit_events"},
		{name: "empty", tableName: "", wantErr: ErrEmptyTableName},
		{name: "with statement separator", tableName: "events; DROP TABLE x", wantErr: ErrInvalidTableName},
		{name: "leading digit", tableName: "1events", wantErr: ErrInvalidTableName},
		{name: "schema qualified", tableName: "public.events", wantErr: ErrInvalidTableName},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			journal, err := newJournal(&fakeDB{}, WithTableName(tc.tableName))

			// assert
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.tableName, journal.TableName())
		})
	}
}

func Test_Journal_DefaultsToLendingEventsTable(t *testing.T) {
	journal := newTestJournal(t, &fakeDB{})

	assert.Equal(t, "lending_events", journal.TableName())
}

func Test_Record_InsertsOneRowWithPayloadAndMetadata(t *testing.T) {
	// arrange
	db := &fakeDB{}
	journal := newTestJournal(t, db)
	ctx := WithCorrelationID(context.Background(), "run-42")

	// act
	err := journal.Record(ctx, bookLent())

	// assert
	require.NoError(t, err)
	require.Len(t, db.statements, 1)

	statement := db.lastStatement()
	assert.Contains(t, statement, `INSERT INTO "lending_events"`)
	assert.Contains(t, statement, `("event_type", "occurred_at", "payload", "metadata")`)
	assert.Contains(t, statement, `'BookLent'`)
	assert.Contains(t, statement, `"PatronID":"S1"`)
	assert.Contains(t, statement, `"Title":"Dune"`)
	assert.Contains(t, statement, `{"event_id":"event-1","correlation_id":"run-42"}`)
	assert.Contains(t, statement, "::jsonb")
}

func Test_Record_WithoutCorrelationID_UsesEventID(t *testing.T) {
	// arrange
	db := &fakeDB{}
	journal := newTestJournal(t, db)

	// act
	err := journal.Record(context.Background(), bookLent())

	// assert
	require.NoError(t, err)
	assert.Contains(t, db.lastStatement(), `{"event_id":"event-1","correlation_id":"event-1"}`)
}

func Test_Record_EscapesQuotesInPayload(t *testing.T) {
	// arrange
	db := &fakeDB{}
	journal := newTestJournal(t, db)
	event := bookLent()
	event.Title = "Ender's Game"

	// act
	err := journal.Record(context.Background(), event)

	// assert
	require.NoError(t, err)
	assert.Contains(t, db.lastStatement(), `Ender''s Game`)
}

func Test_Record_ExecFailure(t *testing.T) {
	// arrange
	dbErr := errors.New("connection reset")
	db := &fakeDB{execErr: dbErr}
	logger := testdoubles.NewLoggerSpy()
	journal := newTestJournal(t, db, WithLogger(logger))

	// act
	err := journal.Record(context.Background(), bookLent())

	// assert
	assert.ErrorIs(t, err, ErrRecordingEventFailed)
	assert.ErrorIs(t, err, dbErr)
	assert.True(t, logger.HasLog("error", logMsgExecFailed))
}

func Test_Record_LogsExecutedSQLAtDebug(t *testing.T) {
	// arrange
	logger := testdoubles.NewLoggerSpy()
	journal := newTestJournal(t, &fakeDB{}, WithLogger(logger))

	// act
	err := journal.Record(context.Background(), bookLent())

	// assert
	require.NoError(t, err)
	debugRecords := logger.RecordsAt("debug")
	require.Len(t, debugRecords, 1)
	assert.Equal(t, logMsgSQLExecuted+logActionRecord, debugRecords[0].Message)

	query, ok := debugRecords[0].Attr(logAttrQuery)
	require.True(t, ok)
	assert.Contains(t, query, "INSERT INTO")
}

func Test_Query_BuildsFilteredSelect(t *testing.T) {
	// arrange
	db := &fakeDB{}
	journal := newTestJournal(t, db, WithTableName("audit_events"))
	filter := Filter{
		EventTypes:    []string{circulation.BookLentEventType, circulation.BookReturnedEventType},
		PatronID:      "S1",
		ISBN:          "978-0",
		OccurredFrom:  occurredAt,
		OccurredUntil: occurredAt.AddDate(0, 0, 14),
	}

	// act
	_, err := journal.Query(context.Background(), filter)

	// assert
	require.NoError(t, err)

	statement := db.lastStatement()
	assert.Contains(t, statement, `FROM "audit_events"`)
	assert.Contains(t, statement, `"event_type" IN ('BookLent', 'BookReturned')`)
	assert.Contains(t, statement, `payload @> '{"PatronID":"S1"}'::jsonb`)
	assert.Contains(t, statement, `payload @> '{"ISBN":"978-0"}'::jsonb`)
	assert.Contains(t, statement, `"occurred_at" >= '2025-03-01`)
	assert.Contains(t, statement, `"occurred_at" <= '2025-03-15`)
	assert.True(t, strings.HasSuffix(statement, `ORDER BY "sequence_number" ASC`))
}

func Test_Query_WithoutFilter_SelectsEverything(t *testing.T) {
	// arrange
	db := &fakeDB{}
	journal := newTestJournal(t, db)

	// act
	events, err := journal.Query(context.Background(), Filter{})

	// assert
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotContains(t, db.lastStatement(), "WHERE")
}

func Test_Query_ScansRowsAndDecodesEvents(t *testing.T) {
	// arrange
	db := &fakeDB{rows: [][]any{
		{
			int64(7),
			circulation.BookLentEventType,
			occurredAt,
			`{"TransactionID":"TRANS-1","PatronID":"S1","ISBN":"978-0","Title":"Dune","BorrowedOn":"2025-03-01","DueOn":"2025-03-15","OccurredAt":"2025-03-01T09:00:00Z"}`,
			`{"event_id":"e-7","correlation_id":"run-1"}`,
		},
	}}
	journal := newTestJournal(t, db)

	// act
	events, err := journal.Query(context.Background(), Filter{PatronID: "S1"})

	// assert
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(7), events[0].SequenceNumber)
	assert.Equal(t, Metadata{EventID: "e-7", CorrelationID: "run-1"}, events[0].Metadata)

	decoded, decodeErr := events[0].DomainEvent()
	require.NoError(t, decodeErr)
	assert.Equal(t, bookLent(), decoded)
}

func Test_Query_Failures(t *testing.T) {
	dbErr := errors.New("boom")

	testCases := []struct {
		name    string
		db      *fakeDB
		wantErr error
	}{
		{name: "query fails", db: &fakeDB{queryErr: dbErr}, wantErr: ErrQueryingEventsFailed},
		{name: "iteration fails", db: &fakeDB{rowsErr: dbErr}, wantErr: ErrQueryingEventsFailed},
		{
			name:    "row does not scan",
			db:      &fakeDB{rows: [][]any{{int64(1), "BookLent"}}},
			wantErr: ErrScanningRowFailed,
		},
		{
			name:    "metadata is not json",
			db:      &fakeDB{rows: [][]any{{int64(1), "BookLent", occurredAt, `{}`, `not json`}}},
			wantErr: ErrScanningRowFailed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			journal := newTestJournal(t, tc.db, WithLogger(testdoubles.NewLoggerSpy()))

			// act
			events, err := journal.Query(context.Background(), Filter{})

			// assert
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, events)
		})
	}
}

func Test_StoredEvent_DomainEvent_Failures(t *testing.T) {
	_, err := StoredEvent{EventType: "BookBurned", PayloadJSON: []byte(`{}`)}.DomainEvent()
	assert.ErrorIs(t, err, ErrUnknownEventType)

	_, err = StoredEvent{EventType: circulation.BookLentEventType, PayloadJSON: []byte(`[`)}.DomainEvent()
	assert.ErrorIs(t, err, ErrDecodingEventFailed)
}

func Test_CreateTable(t *testing.T) {
	// arrange
	db := &fakeDB{}
	journal := newTestJournal(t, db, WithTableName("audit_events"))

	// act
	err := journal.CreateTable(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, CreateTableSQL("audit_events"), db.lastStatement())
	assert.Contains(t, db.lastStatement(), "CREATE TABLE IF NOT EXISTS audit_events")
	assert.Contains(t, db.lastStatement(), "sequence_number BIGSERIAL PRIMARY KEY")
	assert.Contains(t, db.lastStatement(), "USING GIN (payload jsonb_path_ops)")
}

func Test_CreateTable_Failure(t *testing.T) {
	// arrange
	dbErr := errors.New("permission denied")
	journal := newTestJournal(t, &fakeDB{execErr: dbErr})

	// act
	err := journal.CreateTable(context.Background())

	// assert
	assert.ErrorIs(t, err, ErrCreatingTableFailed)
	assert.ErrorIs(t, err, dbErr)
}

func Test_Journal_ServesAsRegistryJournal(t *testing.T) {
	// arrange
	db := &fakeDB{}
	journal := newTestJournal(t, db)
	clock := circulation.NewManualClock(occurredAt)
	registry, err := circulation.NewRegistry(circulation.WithClock(clock), circulation.WithJournal(journal))
	require.NoError(t, err)

	// act
	require.NoError(t, registry.AddPatron(context.Background(), circulation.NewStudent("S1", "Ada", "ada@example.org", "42")))

	// assert
	require.Len(t, db.statements, 1)
	assert.Contains(t, db.lastStatement(), `'PatronRegistered'`)
}
