package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
	"github.com/AntonStoeckl/lending-registry-go/circulation/postgresjournal"
	"github.com/AntonStoeckl/lending-registry-go/internal/config"
)

type fakeJournal struct {
	filter postgresjournal.Filter
	rows   postgresjournal.StoredEvents
}

func (f *fakeJournal) Query(_ context.Context, filter postgresjournal.Filter) (postgresjournal.StoredEvents, error) {
	f.filter = filter
	return f.rows, nil
}

func storedRow(t *testing.T, sequence int64, event circulation.DomainEvent) postgresjournal.StoredEvent {
	t.Helper()

	payload, err := jsoniter.ConfigFastest.Marshal(event)
	require.NoError(t, err)

	return postgresjournal.StoredEvent{
		SequenceNumber: sequence,
		EventType:      event.EventType(),
		OccurredAt:     event.HasOccurredAt(),
		PayloadJSON:    payload,
		Metadata:       postgresjournal.Metadata{EventID: "evt-1", CorrelationID: "run-1"},
	}
}

func Test_ListJournal_PassesFilterAndPrintsEvents(t *testing.T) {
	// arrange
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	journal := &fakeJournal{rows: postgresjournal.StoredEvents{
		storedRow(t, 7, circulation.BookLent{
			TransactionID: "TRANS-1", PatronID: "S1", ISBN: "978-0", Title: "Dune",
			BorrowedOn: "2025-03-01", DueOn: "2025-03-15", OccurredAt: at,
		}),
	}}
	query := &journalQuery{patronID: "S1", eventTypes: []string{"BookLent"}, from: "2025-03-01"}
	out := &bytes.Buffer{}

	// act
	err := listJournal(context.Background(), out, journal, query)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "S1", journal.filter.PatronID)
	assert.Equal(t, []string{"BookLent"}, journal.filter.EventTypes)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), journal.filter.OccurredFrom)
	assert.True(t, journal.filter.OccurredUntil.IsZero())
	assert.Contains(t, out.String(), "     7  2025-03-01T09:00:00Z  BookLent")
	assert.Contains(t, out.String(), `"Title":"Dune"`)
}

func Test_ListJournal_JSON(t *testing.T) {
	// arrange
	at := time.Date(2025, 3, 21, 9, 0, 0, 0, time.UTC)
	journal := &fakeJournal{rows: postgresjournal.StoredEvents{
		storedRow(t, 1, circulation.OverdueAlerted{
			TransactionID: "TRANS-1", PatronID: "S1", ISBN: "978-0", DaysLate: 6, OccurredAt: at,
		}),
	}}
	out := &bytes.Buffer{}

	// act
	err := listJournal(context.Background(), out, journal, &journalQuery{jsonOutput: true})

	// assert
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "OverdueAlerted", entries[0]["event_type"])
	assert.Equal(t, "run-1", entries[0]["correlation_id"])
	assert.Equal(t, 6.0, entries[0]["event"].(map[string]any)["DaysLate"])
}

func Test_ListJournal_Failures(t *testing.T) {
	t.Run("unknown event type", func(t *testing.T) {
		// arrange
		journal := &fakeJournal{rows: postgresjournal.StoredEvents{{SequenceNumber: 3, EventType: "Mystery"}}}

		// act
		err := listJournal(context.Background(), &bytes.Buffer{}, journal, &journalQuery{})

		// assert
		assert.ErrorIs(t, err, postgresjournal.ErrUnknownEventType)
	})

	t.Run("malformed date", func(t *testing.T) {
		// act
		err := listJournal(context.Background(), &bytes.Buffer{}, &fakeJournal{}, &journalQuery{until: "21.03.2025"})

		// assert
		assert.ErrorContains(t, err, "invalid date")
	})
}

func Test_ListJournal_Empty(t *testing.T) {
	// arrange
	out := &bytes.Buffer{}

	// act
	err := listJournal(context.Background(), out, &fakeJournal{}, &journalQuery{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, "no journal events found\n", out.String())
}

func Test_JournalCommand_RequiresEnabledJournal(t *testing.T) {
	// arrange
	path := writeConfig(t, scenarioYAML)

	// act
	_, err := execute(t, "journal", "--config", path, "--patron", "S1")

	// assert
	assert.ErrorIs(t, err, config.ErrJournalDisabled)
}
