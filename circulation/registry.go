package circulation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Registry owns all patrons, books and loans and is their single mutation point.
//
// Every public operation runs under one mutex, so the check-then-act sequences of
// borrow and return are atomic with respect to each other. Notifications are broadcast
// synchronously while that mutex is held: subscribers must not call back into the Registry.
type Registry struct {
	mu                sync.Mutex
	patrons           map[string]*Patron
	books             map[string]*Book
	loans             []*Loan
	lastTransactionID TransactionID
	channel           *Channel
	clock             Clock
	journal           Journal
	sink              MessageSink
	observer          observer
}

// NewRegistry creates an empty Registry with optional configuration.
func NewRegistry(options ...Option) (*Registry, error) {
	r := &Registry{
		patrons: make(map[string]*Patron),
		books:   make(map[string]*Book),
		channel: NewChannel(),
		clock:   SystemClock{},
	}

	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Now returns the Registry clock's current instant.
func (r *Registry) Now() time.Time {
	return r.clock.Now()
}

// AddPatron registers p and subscribes it to notifications.
// The Registry stores its own copy; later changes to p have no effect.
//
// Held titles are derived from open loans, so any titles recorded on p itself are discarded.
// An existing patron with the same id is replaced silently. The replacement takes over the
// titles its predecessor currently holds, since their loans stay open, and its place in the
// broadcast order. If those titles exceed the replacement's borrowing limit the call fails with
// ErrBorrowLimitReached and nothing changes. A new patron whose id belongs to an additional
// subscriber is refused with ErrSubscriberIDInUse.
func (r *Registry) AddPatron(ctx context.Context, p *Patron) error {
	start := time.Now()
	ctx, span := r.observer.startOperation(ctx, operationAddPatron, logAttrPatronID, p.ID())

	r.mu.Lock()
	err := r.addPatron(ctx, p)
	r.mu.Unlock()

	r.observer.finishOperation(ctx, operationAddPatron, span, time.Since(start), err, logAttrPatronID, p.ID())

	return err
}

func (r *Registry) addPatron(ctx context.Context, p *Patron) error {
	now := r.clock.Now()
	owned := p.snapshot()
	owned.sink = r.sink
	owned.held = make([]string, 0, owned.BorrowingLimit())

	if previous, exists := r.patrons[p.ID()]; exists {
		if previous.HeldCount() > owned.BorrowingLimit() {
			return fmt.Errorf(
				"%w: replacement for patron %q allows %d books but %d are on loan",
				ErrBorrowLimitReached, p.ID(), owned.BorrowingLimit(), previous.HeldCount(),
			)
		}

		owned.held = previous.HeldTitles()
	} else if r.channel.IsSubscribed(owned.ID()) {
		return fmt.Errorf("%w: %q", ErrSubscriberIDInUse, owned.ID())
	}

	r.patrons[owned.ID()] = &owned
	r.channel.Replace(&owned)

	r.record(ctx, PatronRegistered{
		PatronID:   owned.ID(),
		Name:       owned.Name(),
		Kind:       owned.Kind(),
		OccurredAt: toOccurredAt(now),
	})

	return nil
}

// RemovePatron removes the patron and unsubscribes it from notifications.
// Patrons that still hold books cannot be removed (ErrPatronHoldsBooks).
func (r *Registry) RemovePatron(ctx context.Context, patronID string) error {
	start := time.Now()
	ctx, span := r.observer.startOperation(ctx, operationRemovePatron, logAttrPatronID, patronID)

	r.mu.Lock()
	err := r.removePatron(ctx, patronID)
	r.mu.Unlock()

	r.observer.finishOperation(ctx, operationRemovePatron, span, time.Since(start), err, logAttrPatronID, patronID)

	return err
}

func (r *Registry) removePatron(ctx context.Context, patronID string) error {
	now := r.clock.Now()

	patron, exists := r.patrons[patronID]
	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownPatron, patronID)
	}

	if patron.HeldCount() > 0 {
		return fmt.Errorf("%w: %q holds %d", ErrPatronHoldsBooks, patronID, patron.HeldCount())
	}

	delete(r.patrons, patronID)
	r.channel.UnsubscribeID(patronID)

	r.record(ctx, PatronRemoved{PatronID: patronID, OccurredAt: toOccurredAt(now)})

	return nil
}

// AddBook adds b to the catalog. The Registry stores its own copy.
//
// An existing book with the same isbn is replaced silently. If that book is on loan, the
// replacement stays on loan to the same patron, and the patron's held title follows a title change.
func (r *Registry) AddBook(ctx context.Context, b *Book) {
	start := time.Now()
	ctx, span := r.observer.startOperation(ctx, operationAddBook, logAttrISBN, b.ISBN())

	r.mu.Lock()
	r.addBook(ctx, b)
	r.mu.Unlock()

	r.observer.finishOperation(ctx, operationAddBook, span, time.Since(start), nil, logAttrISBN, b.ISBN())
}

func (r *Registry) addBook(ctx context.Context, b *Book) {
	now := r.clock.Now()
	owned := b.snapshot()
	owned.Release()

	if previous, exists := r.books[b.ISBN()]; exists {
		if holderID, lent := previous.Holder(); lent {
			owned.MarkBorrowed(holderID)

			if holder, ok := r.patrons[holderID]; ok && previous.Title() != owned.Title() {
				holder.renameHeld(previous.Title(), owned.Title())
			}
		}
	}

	r.books[owned.ISBN()] = &owned

	r.record(ctx, BookAdded{ISBN: owned.ISBN(), Title: owned.Title(), OccurredAt: toOccurredAt(now)})
}

// RemoveBook removes the book from the catalog.
// Books that are on loan cannot be removed (ErrBookUnavailable).
func (r *Registry) RemoveBook(ctx context.Context, isbn string) error {
	start := time.Now()
	ctx, span := r.observer.startOperation(ctx, operationRemoveBook, logAttrISBN, isbn)

	r.mu.Lock()
	err := r.removeBook(ctx, isbn)
	r.mu.Unlock()

	r.observer.finishOperation(ctx, operationRemoveBook, span, time.Since(start), err, logAttrISBN, isbn)

	return err
}

func (r *Registry) removeBook(ctx context.Context, isbn string) error {
	now := r.clock.Now()

	book, exists := r.books[isbn]
	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownBook, isbn)
	}

	if holderID, lent := book.Holder(); lent {
		return fmt.Errorf("%w: %q is on loan to %q", ErrBookUnavailable, isbn, holderID)
	}

	delete(r.books, isbn)

	r.record(ctx, BookRemoved{ISBN: isbn, OccurredAt: toOccurredAt(now)})

	return nil
}

// Subscribe adds an additional subscriber to the notification Channel, e.g. a staff console.
// Subscriber ids share one namespace with patron ids: an id that is already subscribed,
// patron or not, is refused and Subscribe reports false.
func (r *Registry) Subscribe(s Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel.Subscribe(s)
}

// Unsubscribe removes an additional subscriber. Patrons are only unsubscribed by RemovePatron,
// so for a patron's id Unsubscribe does nothing and reports false.
func (r *Registry) Unsubscribe(s Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, isPatron := r.patrons[s.SubscriberID()]; isPatron {
		return false
	}

	return r.channel.Unsubscribe(s)
}

// broadcast sends message to all subscribers and accounts for it.
func (r *Registry) broadcast(ctx context.Context, kind string, message string) {
	recipients := r.channel.Broadcast(message)

	r.observer.incrementCounter(ctx, NotificationsMetric, map[string]string{logAttrKind: kind})
	r.observer.logInfo(ctx, logMsgNotificationSent, logAttrKind, kind, logAttrRecipients, recipients)
}

// record hands event to the Journal. Journal failures are logged and counted, never returned.
func (r *Registry) record(ctx context.Context, event DomainEvent) {
	if r.journal == nil {
		return
	}

	if err := r.journal.Record(ctx, event); err != nil {
		r.observer.incrementCounter(ctx, JournalWriteErrorsMetric, map[string]string{logAttrEventType: event.EventType()})
		r.observer.logWarn(ctx, logMsgJournalWriteFailed, logAttrEventType, event.EventType(), logAttrError, err.Error())
	}
}
