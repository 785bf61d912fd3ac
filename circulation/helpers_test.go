package circulation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
)

var day0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestRegistry(t *testing.T, options ...circulation.Option) (*circulation.Registry, *circulation.ManualClock) {
	t.Helper()

	clock := circulation.NewManualClock(day0)
	registry, err := circulation.NewRegistry(append([]circulation.Option{circulation.WithClock(clock)}, options...)...)
	require.NoError(t, err)

	return registry, clock
}

func givenPatrons(t *testing.T, registry *circulation.Registry, patrons ...*circulation.Patron) {
	t.Helper()

	for _, p := range patrons {
		require.NoError(t, registry.AddPatron(context.Background(), p))
	}
}

func givenBooks(registry *circulation.Registry, isbns ...string) {
	for _, isbn := range isbns {
		registry.AddBook(context.Background(), circulation.NewBook(isbn, "Title "+isbn, "Author", "Category"))
	}
}

func givenBorrowed(t *testing.T, registry *circulation.Registry, patronID string, isbns ...string) {
	t.Helper()

	for _, isbn := range isbns {
		_, err := registry.Borrow(context.Background(), patronID, isbn)
		require.NoError(t, err)
	}
}

type deliveryRecorder struct {
	deliveries []delivery
}

type delivery struct {
	PatronID string
	Message  string
}

func (d *deliveryRecorder) sink() circulation.MessageSink {
	return circulation.MessageSinkFunc(func(patronID, _ string, message string) {
		d.deliveries = append(d.deliveries, delivery{PatronID: patronID, Message: message})
	})
}

func (d *deliveryRecorder) recipients() []string {
	ids := make([]string, 0, len(d.deliveries))
	for _, dl := range d.deliveries {
		ids = append(ids, dl.PatronID)
	}

	return ids
}
