package circulation

import (
	"fmt"
	"slices"
	"strings"
)

// PatronKind tags the two patron variants.
type PatronKind string

const (
	// KindStudent identifies a Student patron.
	KindStudent PatronKind = "STUDENT"

	// KindTeacher identifies a Teacher patron.
	KindTeacher PatronKind = "TEACHER"

	studentBorrowingLimit = 3
	teacherBorrowingLimit = 5
)

// ParsePatronKind converts external input (config files, CLI flags) into a PatronKind.
// Matching is case-insensitive.
func ParsePatronKind(s string) (PatronKind, error) {
	switch PatronKind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindStudent:
		return KindStudent, nil
	case KindTeacher:
		return KindTeacher, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPatronKind, s)
	}
}

// Variant is the borrowing-limit policy of a patron.
// Kind and Detail are descriptive only and carry no behavior.
type Variant interface {
	BorrowingLimit() int
	Kind() PatronKind
	Detail() string
}

// Student may hold up to 3 books at a time.
type Student struct {
	Number string
}

// BorrowingLimit returns 3.
func (Student) BorrowingLimit() int { return studentBorrowingLimit }

// Kind returns KindStudent.
func (Student) Kind() PatronKind { return KindStudent }

// Detail returns the student number.
func (s Student) Detail() string { return s.Number }

// Teacher may hold up to 5 books at a time.
type Teacher struct {
	Department string
}

// BorrowingLimit returns 5.
func (Teacher) BorrowingLimit() int { return teacherBorrowingLimit }

// Kind returns KindTeacher.
func (Teacher) Kind() PatronKind { return KindTeacher }

// Detail returns the department.
func (t Teacher) Detail() string { return t.Department }

// MessageSink is where a patron's notifications end up after they were recorded in its inbox,
// e.g. a console, a logger, or a test spy.
type MessageSink interface {
	Deliver(patronID string, patronName string, message string)
}

// MessageSinkFunc adapts a plain function to MessageSink.
type MessageSinkFunc func(patronID string, patronName string, message string)

// Deliver calls f.
func (f MessageSinkFunc) Deliver(patronID string, patronName string, message string) {
	f(patronID, patronName, message)
}

// Patron is a person permitted to borrow books.
//
// A Patron returned by the Registry's read operations is a detached snapshot:
// mutating it does not affect the Registry.
type Patron struct {
	id      string
	name    string
	email   string
	variant Variant
	held    []string
	inbox   []string
	sink    MessageSink
}

// NewPatron creates a patron with the given borrowing policy.
// Field formats are not validated; empty strings are accepted.
func NewPatron(id, name, email string, variant Variant) *Patron {
	if variant == nil {
		panic("circulation: NewPatron called with nil variant")
	}

	return &Patron{
		id:      id,
		name:    name,
		email:   email,
		variant: variant,
		held:    make([]string, 0, variant.BorrowingLimit()),
	}
}

// NewStudent creates a Student patron.
func NewStudent(id, name, email, studentNumber string) *Patron {
	return NewPatron(id, name, email, Student{Number: studentNumber})
}

// NewTeacher creates a Teacher patron.
func NewTeacher(id, name, email, department string) *Patron {
	return NewPatron(id, name, email, Teacher{Department: department})
}

// NewPatronOfKind dispatches on the kind tag. The attribute is the student number or the department.
// An unknown kind is a programming error and panics; validate input with ParsePatronKind first.
func NewPatronOfKind(kind PatronKind, id, name, email, attribute string) *Patron {
	switch kind {
	case KindStudent:
		return NewStudent(id, name, email, attribute)
	case KindTeacher:
		return NewTeacher(id, name, email, attribute)
	default:
		panic(fmt.Sprintf("circulation: unknown patron kind %q", kind))
	}
}

// ID returns the patron's identifier.
func (p *Patron) ID() string { return p.id }

// Name returns the display name.
func (p *Patron) Name() string { return p.name }

// Email returns the email address.
func (p *Patron) Email() string { return p.email }

// Kind returns the variant tag.
func (p *Patron) Kind() PatronKind { return p.variant.Kind() }

// Detail returns the student number or department.
func (p *Patron) Detail() string { return p.variant.Detail() }

// BorrowingLimit returns how many books the patron may hold at once.
func (p *Patron) BorrowingLimit() int { return p.variant.BorrowingLimit() }

// HeldCount returns the number of titles currently held.
func (p *Patron) HeldCount() int { return len(p.held) }

// HeldTitles returns the held titles in borrow order.
func (p *Patron) HeldTitles() []string {
	return slices.Clone(p.held)
}

// CanBorrow reports whether the patron is below the borrowing limit.
func (p *Patron) CanBorrow() bool {
	return len(p.held) < p.variant.BorrowingLimit()
}

// RecordBorrow appends a title to the held list.
// At the limit the call is silently ignored; callers check CanBorrow first.
func (p *Patron) RecordBorrow(title string) {
	if !p.CanBorrow() {
		return
	}

	p.held = append(p.held, title)
}

// RecordReturn removes one occurrence of title from the held list. Absent titles are ignored.
func (p *Patron) RecordReturn(title string) {
	if i := slices.Index(p.held, title); i >= 0 {
		p.held = slices.Delete(p.held, i, i+1)
	}
}

// renameHeld replaces the first occurrence of oldTitle, keeping its position in borrow order.
func (p *Patron) renameHeld(oldTitle, newTitle string) {
	if i := slices.Index(p.held, oldTitle); i >= 0 {
		p.held[i] = newTitle
	}
}

// SubscriberID identifies the patron in the notification Channel.
func (p *Patron) SubscriberID() string { return p.id }

// Notify records the message in the patron's inbox and forwards it to the sink, if any.
func (p *Patron) Notify(message string) {
	p.inbox = append(p.inbox, message)

	if p.sink != nil {
		p.sink.Deliver(p.id, p.name, message)
	}
}

// Notifications returns the messages received so far, oldest first.
func (p *Patron) Notifications() []string {
	return slices.Clone(p.inbox)
}

// String renders the patron for reports.
func (p *Patron) String() string {
	return fmt.Sprintf(
		"%s{id: %q, name: %q, email: %q, detail: %q, borrowed: %d/%d}",
		p.variant.Kind(), p.id, p.name, p.email, p.variant.Detail(), len(p.held), p.variant.BorrowingLimit(),
	)
}

// snapshot returns a detached copy that shares no mutable state with p.
func (p *Patron) snapshot() Patron {
	return Patron{
		id:      p.id,
		name:    p.name,
		email:   p.email,
		variant: p.variant,
		held:    slices.Clone(p.held),
		inbox:   slices.Clone(p.inbox),
	}
}
