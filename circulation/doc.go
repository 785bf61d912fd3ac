// Package circulation implements the loan lifecycle of a lending catalog:
// registered patrons, a book catalog, and the loans linking them.
//
// The Registry is the single source of truth and the single mutation point.
// It enforces the borrow/return protocol, keeps book availability, patron
// holdings and the loan log consistent with each other, and broadcasts a
// text notification through the notification Channel after every state change.
//
// Patrons come in two variants which differ only in their borrowing limit:
//   - Student: may hold up to 3 books
//   - Teacher: may hold up to 5 books
//
// Loans are due LoanPeriodDays calendar days after they were borrowed.
// Lateness, days late and days remaining are derived on demand and never stored.
//
// Common usage pattern:
//
//	registry, err := circulation.NewRegistry(
//		circulation.WithLogger(slog.Default()),
//	)
//	if err != nil {
//		// handle error
//	}
//
//	registry.AddPatron(ctx, circulation.NewStudent("S1", "Ada", "ada@example.org", "2024-001"))
//	registry.AddBook(ctx, circulation.NewBook("978-0", "Dune", "Frank Herbert", "Sci-Fi"))
//
//	loan, err := registry.Borrow(ctx, "S1", "978-0")
//	if errors.Is(err, circulation.ErrBorrowLimitReached) {
//		// business failure, nothing was mutated
//	}
//
// Business failures are returned as errors wrapping one of the sentinel errors
// in errors.go; they never leave partial state behind.
package circulation
