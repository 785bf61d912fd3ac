package circulation

import "fmt"

// lendingState is the slice of Registry state a borrow or return decision depends on.
type lendingState struct {
	patronID        string
	isbn            string
	patronKnown     bool
	bookKnown       bool
	bookHolderID    string
	bookLent        bool
	patronHeld      int
	patronLimit     int
	activeLoanFound bool
}

// project collects the lendingState for one (patron, book) pair. It must be called with r.mu held.
func (r *Registry) project(patronID, isbn string) (lendingState, *Patron, *Book, *Loan) {
	s := lendingState{patronID: patronID, isbn: isbn}

	patron, patronKnown := r.patrons[patronID]
	if patronKnown {
		s.patronKnown = true
		s.patronHeld = patron.HeldCount()
		s.patronLimit = patron.BorrowingLimit()
	}

	book, bookKnown := r.books[isbn]
	if bookKnown {
		s.bookKnown = true
		s.bookHolderID, s.bookLent = book.Holder()
	}

	loan := r.findActiveLoan(patronID, isbn)
	s.activeLoanFound = loan != nil

	return s, patron, book, loan
}

// decideBorrow applies the borrow rules in their fixed order.
//
// Business Rules:
//
//	GIVEN: a patron id and an isbn
//	WHEN: the patron asks to borrow the book
//	THEN: a new loan is opened
//	ERROR: unknown patron if the patron is not registered
//	ERROR: unknown book if the isbn is not in the catalog
//	ERROR: book unavailable if anyone (including this patron) holds the book
//	ERROR: borrow limit reached if the patron holds as many books as their variant allows
func decideBorrow(s lendingState) error {
	if !s.patronKnown {
		return fmt.Errorf("%w: %q", ErrUnknownPatron, s.patronID)
	}

	if !s.bookKnown {
		return fmt.Errorf("%w: %q", ErrUnknownBook, s.isbn)
	}

	if s.bookLent {
		return fmt.Errorf("%w: %q is on loan to %q", ErrBookUnavailable, s.isbn, s.bookHolderID)
	}

	if s.patronHeld >= s.patronLimit {
		return fmt.Errorf("%w: %q holds %d of %d", ErrBorrowLimitReached, s.patronID, s.patronHeld, s.patronLimit)
	}

	return nil
}

// decideReturn applies the return rules in their fixed order.
//
// Business Rules:
//
//	GIVEN: a patron id and an isbn
//	WHEN: the patron brings the book back
//	THEN: the open loan for exactly this pair is closed
//	ERROR: unknown patron if the patron is not registered
//	ERROR: unknown book if the isbn is not in the catalog
//	ERROR: no active loan if this patron has no open loan for this book
func decideReturn(s lendingState) error {
	if !s.patronKnown {
		return fmt.Errorf("%w: %q", ErrUnknownPatron, s.patronID)
	}

	if !s.bookKnown {
		return fmt.Errorf("%w: %q", ErrUnknownBook, s.isbn)
	}

	if !s.activeLoanFound {
		return fmt.Errorf("%w: patron %q, isbn %q", ErrNoActiveLoan, s.patronID, s.isbn)
	}

	return nil
}
