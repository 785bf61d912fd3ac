package circulation

import (
	"context"
	"fmt"
	"time"
)

// Borrow lends the book to the patron for LoanPeriodDays.
//
// The checks run in a fixed order (unknown patron, unknown book, book unavailable, borrow limit
// reached) and the first failing one is returned. On failure nothing changes.
// On success every subscriber receives a message naming the patron, the title and the due date.
func (r *Registry) Borrow(ctx context.Context, patronID, isbn string) (Loan, error) {
	start := time.Now()
	ctx, span := r.observer.startOperation(ctx, operationBorrow, logAttrPatronID, patronID, logAttrISBN, isbn)

	r.mu.Lock()
	loan, err := r.borrow(ctx, patronID, isbn)
	r.mu.Unlock()

	args := []any{logAttrPatronID, patronID, logAttrISBN, isbn}
	if err == nil {
		args = append(args, logAttrTransaction, loan.TransactionID().String())
	}

	r.observer.finishOperation(ctx, operationBorrow, span, time.Since(start), err, args...)

	return loan, err
}

func (r *Registry) borrow(ctx context.Context, patronID, isbn string) (Loan, error) {
	now := r.clock.Now()

	s, patron, book, _ := r.project(patronID, isbn)
	if err := decideBorrow(s); err != nil {
		r.recordFailure(ctx, operationBorrow, patronID, isbn, err, now)
		return Loan{}, err
	}

	r.lastTransactionID++
	loan := NewLoan(r.lastTransactionID, patronID, isbn, now)
	r.loans = append(r.loans, loan)

	book.MarkBorrowed(patronID)
	patron.RecordBorrow(book.Title())

	r.broadcast(ctx, notificationBorrowed, fmt.Sprintf(
		"%s borrowed '%s'. Due back on %s.",
		patron.Name(), book.Title(), loan.DueOn().Format(dateLayout),
	))

	r.record(ctx, BookLent{
		TransactionID: loan.TransactionID().String(),
		PatronID:      patronID,
		ISBN:          isbn,
		Title:         book.Title(),
		BorrowedOn:    loan.BorrowedOn().Format(dateLayout),
		DueOn:         loan.DueOn().Format(dateLayout),
		OccurredAt:    toOccurredAt(now),
	})

	return loan.snapshot(), nil
}

// Return closes the patron's open loan for the book.
//
// It fails with ErrUnknownPatron, ErrUnknownBook or ErrNoActiveLoan, in that order, and changes
// nothing on failure. On success every subscriber receives a message which, for a late return,
// contains the number of days late.
func (r *Registry) Return(ctx context.Context, patronID, isbn string) (Loan, error) {
	start := time.Now()
	ctx, span := r.observer.startOperation(ctx, operationReturn, logAttrPatronID, patronID, logAttrISBN, isbn)

	r.mu.Lock()
	loan, err := r.returnBook(ctx, patronID, isbn)
	r.mu.Unlock()

	args := []any{logAttrPatronID, patronID, logAttrISBN, isbn}
	if err == nil {
		args = append(args, logAttrTransaction, loan.TransactionID().String())
	}

	r.observer.finishOperation(ctx, operationReturn, span, time.Since(start), err, args...)

	return loan, err
}

func (r *Registry) returnBook(ctx context.Context, patronID, isbn string) (Loan, error) {
	now := r.clock.Now()

	s, patron, book, loan := r.project(patronID, isbn)
	if err := decideReturn(s); err != nil {
		r.recordFailure(ctx, operationReturn, patronID, isbn, err, now)
		return Loan{}, err
	}

	loan.MarkReturned(now)
	book.Release()
	patron.RecordReturn(book.Title())

	daysLate := loan.DaysLate(now)

	if loan.IsLate(now) {
		r.broadcast(ctx, notificationReturned, fmt.Sprintf(
			"%s returned '%s' %d day(s) late.", patron.Name(), book.Title(), daysLate,
		))
	} else {
		r.broadcast(ctx, notificationReturned, fmt.Sprintf(
			"%s returned '%s' on time. Thank you!", patron.Name(), book.Title(),
		))
	}

	returnedOn, _ := loan.ReturnedOn()

	r.record(ctx, BookReturned{
		TransactionID: loan.TransactionID().String(),
		PatronID:      patronID,
		ISBN:          isbn,
		ReturnedOn:    returnedOn.Format(dateLayout),
		DaysLate:      daysLate,
		OccurredAt:    toOccurredAt(now),
	})

	return loan.snapshot(), nil
}

// NotifyOverdue broadcasts one alert per overdue loan and returns how many alerts were sent.
// Alerts go to every subscriber, not only to the late patron.
func (r *Registry) NotifyOverdue(ctx context.Context) int {
	start := time.Now()
	ctx, span := r.observer.startOperation(ctx, operationNotifyOverdue)

	r.mu.Lock()
	alerts := r.notifyOverdue(ctx)
	r.mu.Unlock()

	r.observer.recordValue(ctx, OverdueLoansMetric, float64(alerts), nil)
	r.observer.finishOperation(ctx, operationNotifyOverdue, span, time.Since(start), nil, logAttrAlerts, alerts)

	return alerts
}

func (r *Registry) notifyOverdue(ctx context.Context) int {
	now := r.clock.Now()
	alerts := 0

	for _, loan := range r.loans {
		if !loan.IsOverdue(now) {
			continue
		}

		book, bookKnown := r.books[loan.ISBN()]
		_, patronKnown := r.patrons[loan.PatronID()]

		if !bookKnown || !patronKnown {
			continue
		}

		daysLate := loan.DaysLate(now)

		r.broadcast(ctx, notificationOverdue, fmt.Sprintf(
			"OVERDUE: '%s' should have been returned %d day(s) ago.", book.Title(), daysLate,
		))

		r.record(ctx, OverdueAlerted{
			TransactionID: loan.TransactionID().String(),
			PatronID:      loan.PatronID(),
			ISBN:          loan.ISBN(),
			DaysLate:      daysLate,
			OccurredAt:    toOccurredAt(now),
		})

		alerts++
	}

	return alerts
}

// findActiveLoan returns the first open loan for the pair in log order, or nil.
func (r *Registry) findActiveLoan(patronID, isbn string) *Loan {
	for _, loan := range r.loans {
		if loan.PatronID() == patronID && loan.ISBN() == isbn && !loan.IsReturned() {
			return loan
		}
	}

	return nil
}

func (r *Registry) recordFailure(ctx context.Context, operation, patronID, isbn string, err error, now time.Time) {
	r.record(ctx, LendingFailed{
		Operation:   operation,
		PatronID:    patronID,
		ISBN:        isbn,
		FailureInfo: FailureReason(err),
		OccurredAt:  toOccurredAt(now),
	})
}
