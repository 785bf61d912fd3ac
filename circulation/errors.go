package circulation

import "errors"

// Business failures. Every Registry operation that fails with one of these leaves the state unchanged.
var (
	// ErrUnknownPatron is returned when the referenced patron id is not registered.
	ErrUnknownPatron = errors.New("unknown patron")

	// ErrUnknownBook is returned when the referenced isbn is not registered.
	ErrUnknownBook = errors.New("unknown book")

	// ErrBookUnavailable is returned when borrowing a book that someone currently holds.
	ErrBookUnavailable = errors.New("book is not available")

	// ErrBorrowLimitReached is returned when the patron already holds as many books as their variant allows.
	ErrBorrowLimitReached = errors.New("patron has reached the borrowing limit")

	// ErrNoActiveLoan is returned when returning a book the patron has no open loan for.
	ErrNoActiveLoan = errors.New("no active loan for this patron and book")

	// ErrPatronHoldsBooks is returned when removing a patron who still has books on loan.
	ErrPatronHoldsBooks = errors.New("patron still holds books")

	// ErrSubscriberIDInUse is returned when registering a patron whose id is taken by another subscriber.
	ErrSubscriberIDInUse = errors.New("subscriber id is already in use")
)

// Configuration errors.
var (
	// ErrNilClock is returned when a nil Clock is supplied to WithClock.
	ErrNilClock = errors.New("clock must not be nil")

	// ErrNilJournal is returned when a nil Journal is supplied to WithJournal.
	ErrNilJournal = errors.New("journal must not be nil")

	// ErrNilMessageSink is returned when a nil MessageSink is supplied to WithMessageSink.
	ErrNilMessageSink = errors.New("message sink must not be nil")

	// ErrUnknownPatronKind is returned by ParsePatronKind for anything but student or teacher.
	ErrUnknownPatronKind = errors.New("unknown patron kind")
)

// IsBusinessFailure reports whether err is one of the expected business failures
// (as opposed to a misconfiguration or an infrastructure problem).
func IsBusinessFailure(err error) bool {
	return errors.Is(err, ErrUnknownPatron) ||
		errors.Is(err, ErrUnknownBook) ||
		errors.Is(err, ErrBookUnavailable) ||
		errors.Is(err, ErrBorrowLimitReached) ||
		errors.Is(err, ErrNoActiveLoan) ||
		errors.Is(err, ErrPatronHoldsBooks) ||
		errors.Is(err, ErrSubscriberIDInUse)
}

// FailureReason maps a business failure to a stable, low-cardinality label for metrics and journal events.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownPatron):
		return "unknown_patron"
	case errors.Is(err, ErrUnknownBook):
		return "unknown_book"
	case errors.Is(err, ErrBookUnavailable):
		return "book_unavailable"
	case errors.Is(err, ErrBorrowLimitReached):
		return "borrow_limit_reached"
	case errors.Is(err, ErrNoActiveLoan):
		return "no_active_loan"
	case errors.Is(err, ErrPatronHoldsBooks):
		return "patron_holds_books"
	case errors.Is(err, ErrSubscriberIDInUse):
		return "subscriber_id_in_use"
	default:
		return "other"
	}
}
