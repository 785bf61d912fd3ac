package postgresjournal

import (
	"fmt"
	"regexp"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Option defines a functional option for configuring the Journal.
type Option func(*Journal) error

// WithTableName sets the journal table. Defaults to "lending_events".
func WithTableName(tableName string) Option {
	return func(j *Journal) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		if !identifierPattern.MatchString(tableName) {
			return fmt.Errorf("%w: %q", ErrInvalidTableName, tableName)
		}

		j.tableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Journal.
//
// Debug level: executed SQL with timing
// Error level: failed statements.
func WithLogger(logger circulation.Logger) Option {
	return func(j *Journal) error {
		j.logger = logger
		return nil
	}
}
