package circulation

import (
	"slices"
	"strings"
	"time"
)

// LoanView is a read-only projection of a Loan joined with its book title and patron name,
// with the derived day counts evaluated at AsOf.
type LoanView struct {
	Loan          Loan
	Title         string
	PatronName    string
	AsOf          time.Time
	IsLate        bool
	DaysRemaining int
	DaysLate      int
}

// Statistics are counts over the Registry state at AsOf.
type Statistics struct {
	Patrons        int
	Books          int
	AvailableBooks int
	TotalLoans     int
	OpenLoans      int
	OverdueLoans   int
	AsOf           time.Time
}

// Patron returns a snapshot of the patron with the given id.
func (r *Registry) Patron(patronID string) (Patron, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patrons[patronID]
	if !ok {
		return Patron{}, false
	}

	return p.snapshot(), true
}

// Patrons returns snapshots of all patrons, ordered by id.
func (r *Registry) Patrons() []Patron {
	r.mu.Lock()
	defer r.mu.Unlock()

	patrons := make([]Patron, 0, len(r.patrons))
	for _, p := range r.patrons {
		patrons = append(patrons, p.snapshot())
	}

	slices.SortFunc(patrons, func(a, b Patron) int { return strings.Compare(a.id, b.id) })

	return patrons
}

// HeldTitles returns the titles the patron currently holds, in borrow order.
func (r *Registry) HeldTitles(patronID string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patrons[patronID]
	if !ok {
		return nil, false
	}

	return p.HeldTitles(), true
}

// Book returns a snapshot of the book with the given isbn.
func (r *Registry) Book(isbn string) (Book, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[isbn]
	if !ok {
		return Book{}, false
	}

	return b.snapshot(), true
}

// Books returns snapshots of all books, ordered by isbn.
func (r *Registry) Books() []Book {
	return r.filterBooks(func(*Book) bool { return true })
}

// AvailableBooks returns snapshots of the books nobody holds, ordered by isbn.
func (r *Registry) AvailableBooks() []Book {
	return r.filterBooks((*Book).IsAvailable)
}

func (r *Registry) filterBooks(keep func(*Book) bool) []Book {
	r.mu.Lock()
	defer r.mu.Unlock()

	books := make([]Book, 0, len(r.books))
	for _, b := range r.books {
		if keep(b) {
			books = append(books, b.snapshot())
		}
	}

	slices.SortFunc(books, func(a, b Book) int { return strings.Compare(a.isbn, b.isbn) })

	return books
}

// Loans returns snapshots of the whole loan log in creation order.
func (r *Registry) Loans() []Loan {
	r.mu.Lock()
	defer r.mu.Unlock()

	loans := make([]Loan, 0, len(r.loans))
	for _, l := range r.loans {
		loans = append(loans, l.snapshot())
	}

	return loans
}

// LoansForPatron returns views of every loan of the patron, open or closed, in creation order.
func (r *Registry) LoansForPatron(patronID string) []LoanView {
	return r.viewLoans(func(l *Loan, _ time.Time) bool { return l.PatronID() == patronID })
}

// OverdueLoans returns views of the open loans that are past their due date, in creation order.
func (r *Registry) OverdueLoans() []LoanView {
	return r.viewLoans((*Loan).IsOverdue)
}

func (r *Registry) viewLoans(keep func(*Loan, time.Time) bool) []LoanView {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	views := make([]LoanView, 0)

	for _, l := range r.loans {
		if keep(l, now) {
			views = append(views, r.view(l, now))
		}
	}

	return views
}

// view must be called with r.mu held.
func (r *Registry) view(l *Loan, now time.Time) LoanView {
	v := LoanView{
		Loan:          l.snapshot(),
		AsOf:          now,
		IsLate:        l.IsLate(now),
		DaysRemaining: l.DaysRemaining(now),
		DaysLate:      l.DaysLate(now),
	}

	if b, ok := r.books[l.ISBN()]; ok {
		v.Title = b.Title()
	}

	if p, ok := r.patrons[l.PatronID()]; ok {
		v.PatronName = p.Name()
	}

	return v
}

// Statistics counts patrons, books and loans.
func (r *Registry) Statistics() Statistics {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	stats := Statistics{
		Patrons:    len(r.patrons),
		Books:      len(r.books),
		TotalLoans: len(r.loans),
		AsOf:       now,
	}

	for _, b := range r.books {
		if b.IsAvailable() {
			stats.AvailableBooks++
		}
	}

	for _, l := range r.loans {
		if !l.IsReturned() {
			stats.OpenLoans++
		}

		if l.IsOverdue(now) {
			stats.OverdueLoans++
		}
	}

	return stats
}
