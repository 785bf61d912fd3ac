package circulation

import "fmt"

// Book is one catalog entry. It is either available or held by exactly one patron.
type Book struct {
	isbn     string
	title    string
	author   string
	category string
	holderID string
	lent     bool
}

// NewBook creates an available book. Field formats are not validated.
func NewBook(isbn, title, author, category string) *Book {
	return &Book{
		isbn:     isbn,
		title:    title,
		author:   author,
		category: category,
	}
}

// ISBN returns the book's identifier.
func (b *Book) ISBN() string { return b.isbn }

// Title returns the title.
func (b *Book) Title() string { return b.title }

// Author returns the author.
func (b *Book) Author() string { return b.author }

// Category returns the category.
func (b *Book) Category() string { return b.category }

// IsAvailable reports whether nobody holds the book.
func (b *Book) IsAvailable() bool { return !b.lent }

// Holder returns the id of the patron holding the book, if any.
func (b *Book) Holder() (string, bool) {
	return b.holderID, b.lent
}

// MarkBorrowed hands the book to a patron. The caller must have checked IsAvailable.
func (b *Book) MarkBorrowed(patronID string) {
	b.lent = true
	b.holderID = patronID
}

// Release makes the book available again. It is idempotent.
func (b *Book) Release() {
	b.lent = false
	b.holderID = ""
}

// String renders the book for reports.
func (b *Book) String() string {
	if b.lent {
		return fmt.Sprintf("Book{isbn: %q, title: %q, author: %q, category: %q, available: false, holder: %q}",
			b.isbn, b.title, b.author, b.category, b.holderID)
	}

	return fmt.Sprintf("Book{isbn: %q, title: %q, author: %q, category: %q, available: true}",
		b.isbn, b.title, b.author, b.category)
}

func (b *Book) snapshot() Book {
	return *b
}
