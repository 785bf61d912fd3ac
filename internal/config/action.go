package config

import (
	"errors"
	"fmt"
)

// ErrUnknownAction is returned for a scripted step with an unsupported action.
var ErrUnknownAction = errors.New("unknown action")

// Action is what a scripted simulation step does.
type Action string

// Supported actions.
const (
	ActionBorrow        Action = "borrow"
	ActionReturn        Action = "return"
	ActionNotifyOverdue Action = "notify-overdue"
	ActionRemovePatron  Action = "remove-patron"
	ActionRemoveBook    Action = "remove-book"
	ActionReport        Action = "report"
)

// Validate returns ErrUnknownAction for unsupported actions.
func (a Action) Validate() error {
	switch a {
	case ActionBorrow, ActionReturn, ActionNotifyOverdue, ActionRemovePatron, ActionRemoveBook, ActionReport:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
	}
}

// NeedsPatron reports whether the step must name a patron.
func (a Action) NeedsPatron() bool {
	return a == ActionBorrow || a == ActionReturn || a == ActionRemovePatron
}

// NeedsISBN reports whether the step must name a book.
func (a Action) NeedsISBN() bool {
	return a == ActionBorrow || a == ActionReturn || a == ActionRemoveBook
}
