package circulation

import (
	"time"
)

// DomainEvent is a business occurrence the Registry reports to its Journal after a state change
// (or after a rejected request, for error events).
type DomainEvent interface {
	// EventType returns the string identifier for this event type.
	EventType() string

	// HasOccurredAt returns when this event occurred.
	HasOccurredAt() time.Time

	// IsErrorEvent returns true if this event represents a rejected request.
	IsErrorEvent() bool
}

// DomainEvents is a slice of DomainEvent instances.
type DomainEvents = []DomainEvent

// Event type identifiers.
const (
	PatronRegisteredEventType = "PatronRegistered"
	PatronRemovedEventType    = "PatronRemoved"
	BookAddedEventType        = "BookAdded"
	BookRemovedEventType      = "BookRemoved"
	BookLentEventType         = "BookLent"
	BookReturnedEventType     = "BookReturned"
	OverdueAlertedEventType   = "OverdueAlerted"
	LendingFailedEventType    = "LendingFailed"
)

// toOccurredAt normalizes to UTC with microsecond precision, which is what Postgres stores.
func toOccurredAt(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// PatronRegistered is recorded when a patron is added (or replaced) in the Registry.
type PatronRegistered struct {
	PatronID   string
	Name       string
	Kind       PatronKind
	OccurredAt time.Time
}

// EventType returns the event type identifier.
func (e PatronRegistered) EventType() string { return PatronRegisteredEventType }

// HasOccurredAt returns when this event occurred.
func (e PatronRegistered) HasOccurredAt() time.Time { return e.OccurredAt }

// IsErrorEvent returns false.
func (e PatronRegistered) IsErrorEvent() bool { return false }

// PatronRemoved is recorded when a patron is removed from the Registry.
type PatronRemoved struct {
	PatronID   string
	OccurredAt time.Time
}

// EventType returns the event type identifier.
func (e PatronRemoved) EventType() string { return PatronRemovedEventType }

// HasOccurredAt returns when this event occurred.
func (e PatronRemoved) HasOccurredAt() time.Time { return e.OccurredAt }

// IsErrorEvent returns false.
func (e PatronRemoved) IsErrorEvent() bool { return false }

// BookAdded is recorded when a book is added (or replaced) in the catalog.
type BookAdded struct {
	ISBN       string
	Title      string
	OccurredAt time.Time
}

// EventType returns the event type identifier.
func (e BookAdded) EventType() string { return BookAddedEventType }

// HasOccurredAt returns when this event occurred.
func (e BookAdded) HasOccurredAt() time.Time { return e.OccurredAt }

// IsErrorEvent returns false.
func (e BookAdded) IsErrorEvent() bool { return false }

// BookRemoved is recorded when a book is removed from the catalog.
type BookRemoved struct {
	ISBN       string
	OccurredAt time.Time
}

// EventType returns the event type identifier.
func (e BookRemoved) EventType() string { return BookRemovedEventType }

// HasOccurredAt returns when this event occurred.
func (e BookRemoved) HasOccurredAt() time.Time { return e.OccurredAt }

// IsErrorEvent returns false.
func (e BookRemoved) IsErrorEvent() bool { return false }

// BookLent is recorded after a successful borrow.
type BookLent struct {
	TransactionID string
	PatronID      string
	ISBN          string
	Title         string
	BorrowedOn    string
	DueOn         string
	OccurredAt    time.Time
}

// EventType returns the event type identifier.
func (e BookLent) EventType() string { return BookLentEventType }

// HasOccurredAt returns when this event occurred.
func (e BookLent) HasOccurredAt() time.Time { return e.OccurredAt }

// IsErrorEvent returns false.
func (e BookLent) IsErrorEvent() bool { return false }

// BookReturned is recorded after a successful return.
type BookReturned struct {
	TransactionID string
	PatronID      string
	ISBN          string
	ReturnedOn    string
	DaysLate      int
	OccurredAt    time.Time
}

// EventType returns the event type identifier.
func (e BookReturned) EventType() string { return BookReturnedEventType }

// HasOccurredAt returns when this event occurred.
func (e BookReturned) HasOccurredAt() time.Time { return e.OccurredAt }

// IsErrorEvent returns false.
func (e BookReturned) IsErrorEvent() bool { return false }

// OverdueAlerted is recorded for every overdue loan an overdue sweep broadcast an alert for.
type OverdueAlerted struct {
	TransactionID string
	PatronID      string
	ISBN          string
	DaysLate      int
	OccurredAt    time.Time
}

// EventType returns the event type identifier.
func (e OverdueAlerted) EventType() string { return OverdueAlertedEventType }

// HasOccurredAt returns when this event occurred.
func (e OverdueAlerted) HasOccurredAt() time.Time { return e.OccurredAt }

// IsErrorEvent returns false.
func (e OverdueAlerted) IsErrorEvent() bool { return false }

// LendingFailed is recorded when a borrow or return request is rejected by a business rule.
type LendingFailed struct {
	Operation   string
	PatronID    string
	ISBN        string
	FailureInfo string
	OccurredAt  time.Time
}

// EventType returns the event type identifier.
func (e LendingFailed) EventType() string { return LendingFailedEventType }

// HasOccurredAt returns when this event occurred.
func (e LendingFailed) HasOccurredAt() time.Time { return e.OccurredAt }

// IsErrorEvent returns true since this event represents a rejected request.
func (e LendingFailed) IsErrorEvent() bool { return true }
