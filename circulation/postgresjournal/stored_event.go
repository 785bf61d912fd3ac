package postgresjournal

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
)

// Metadata is stored alongside every event.
type Metadata struct {
	EventID       string `json:"event_id"`
	CorrelationID string `json:"correlation_id"`
}

// StoredEvents is an alias type for a slice of StoredEvent.
type StoredEvents = []StoredEvent

// StoredEvent is one journal row.
type StoredEvent struct {
	SequenceNumber int64
	EventType      string
	OccurredAt     time.Time
	PayloadJSON    []byte
	Metadata       Metadata
}

// DomainEvent decodes the payload back into the circulation event it was recorded from.
func (e StoredEvent) DomainEvent() (circulation.DomainEvent, error) {
	switch e.EventType {
	case circulation.PatronRegisteredEventType:
		return decodePayload[circulation.PatronRegistered](e)
	case circulation.PatronRemovedEventType:
		return decodePayload[circulation.PatronRemoved](e)
	case circulation.BookAddedEventType:
		return decodePayload[circulation.BookAdded](e)
	case circulation.BookRemovedEventType:
		return decodePayload[circulation.BookRemoved](e)
	case circulation.BookLentEventType:
		return decodePayload[circulation.BookLent](e)
	case circulation.BookReturnedEventType:
		return decodePayload[circulation.BookReturned](e)
	case circulation.OverdueAlertedEventType:
		return decodePayload[circulation.OverdueAlerted](e)
	case circulation.LendingFailedEventType:
		return decodePayload[circulation.LendingFailed](e)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, e.EventType)
	}
}

func decodePayload[T circulation.DomainEvent](e StoredEvent) (circulation.DomainEvent, error) {
	var event T
	if err := jsoniter.ConfigFastest.Unmarshal(e.PayloadJSON, &event); err != nil {
		return nil, errors.Join(ErrDecodingEventFailed, err)
	}

	return event, nil
}

type correlationIDKey struct{}

// WithCorrelationID returns a context whose recorded events share the given correlation id.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFrom returns the correlation id stored in ctx, if any.
func CorrelationIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey{}).(string)
	return id, ok && id != ""
}

// Filter selects journal rows. Zero-valued fields do not restrict the result.
type Filter struct {
	EventTypes    []string
	PatronID      string
	ISBN          string
	OccurredFrom  time.Time
	OccurredUntil time.Time
}
