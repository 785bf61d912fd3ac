package circulation

import (
	"fmt"
	"time"
)

// LoanPeriodDays is the fixed number of calendar days between borrowing and the due date.
const LoanPeriodDays = 14

const dateLayout = "2006-01-02"

// TransactionID identifies a Loan. The Registry assigns them sequentially, starting at 1.
type TransactionID uint64

// String renders the id as TRANS-<n>.
func (id TransactionID) String() string {
	return fmt.Sprintf("TRANS-%d", uint64(id))
}

// Loan links one patron to one book for a bounded period.
// Everything except the return date is fixed at construction; the return date is written at most once.
type Loan struct {
	id         TransactionID
	patronID   string
	isbn       string
	borrowedOn time.Time
	dueOn      time.Time
	returnedOn time.Time
	returned   bool
}

// NewLoan creates an open loan borrowed on the calendar day of now.
func NewLoan(id TransactionID, patronID, isbn string, now time.Time) *Loan {
	borrowedOn := dayOf(now)

	return &Loan{
		id:         id,
		patronID:   patronID,
		isbn:       isbn,
		borrowedOn: borrowedOn,
		dueOn:      borrowedOn.AddDate(0, 0, LoanPeriodDays),
	}
}

// TransactionID returns the loan's identifier.
func (l *Loan) TransactionID() TransactionID { return l.id }

// PatronID returns the borrowing patron's id.
func (l *Loan) PatronID() string { return l.patronID }

// ISBN returns the borrowed book's isbn.
func (l *Loan) ISBN() string { return l.isbn }

// BorrowedOn returns the borrow date (midnight).
func (l *Loan) BorrowedOn() time.Time { return l.borrowedOn }

// DueOn returns the due date (midnight).
func (l *Loan) DueOn() time.Time { return l.dueOn }

// ReturnedOn returns the actual return date, if the loan is closed.
func (l *Loan) ReturnedOn() (time.Time, bool) {
	return l.returnedOn, l.returned
}

// IsReturned reports whether the return date is set.
func (l *Loan) IsReturned() bool { return l.returned }

// MarkReturned stamps the return date. It returns false, and changes nothing, if the loan is already closed.
func (l *Loan) MarkReturned(at time.Time) bool {
	if l.returned {
		return false
	}

	l.returnedOn = dayOf(at)
	l.returned = true

	return true
}

// IsLate reports whether the return date, or now for open loans, is after the due date.
func (l *Loan) IsLate(now time.Time) bool {
	return l.referenceDay(now).After(l.dueOn)
}

// DaysRemaining returns the calendar days from now until the due date; negative once overdue.
func (l *Loan) DaysRemaining(now time.Time) int {
	return daysBetween(dayOf(now), l.dueOn)
}

// DaysLate returns the calendar days between the due date and the return date (or now); zero unless late.
func (l *Loan) DaysLate(now time.Time) int {
	if !l.IsLate(now) {
		return 0
	}

	return daysBetween(l.dueOn, l.referenceDay(now))
}

// IsOverdue reports whether the loan is still open and past its due date.
func (l *Loan) IsOverdue(now time.Time) bool {
	return !l.returned && l.IsLate(now)
}

// Describe renders the loan for reports, evaluated against now.
func (l *Loan) Describe(now time.Time) string {
	late := "no"
	if l.IsLate(now) {
		late = "yes"
	}

	returned := ""
	if l.returned {
		returned = ", returned: " + l.returnedOn.Format(dateLayout)
	}

	return fmt.Sprintf("Loan{id: %s, patron: %q, isbn: %q, borrowed: %s, due: %s%s, late: %s}",
		l.id, l.patronID, l.isbn, l.borrowedOn.Format(dateLayout), l.dueOn.Format(dateLayout), returned, late)
}

func (l *Loan) referenceDay(now time.Time) time.Time {
	if l.returned {
		return l.returnedOn
	}

	return dayOf(now)
}

func (l *Loan) snapshot() Loan {
	return *l
}
