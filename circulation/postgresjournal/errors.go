package postgresjournal

import "errors"

var (
	// ErrNilDatabaseConnection is returned when a constructor receives a nil connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned by WithTableName for an empty name.
	ErrEmptyTableName = errors.New("empty table name supplied")

	// ErrInvalidTableName is returned by WithTableName for names that are not plain SQL identifiers.
	ErrInvalidTableName = errors.New("table name must be a plain SQL identifier")

	// ErrEncodingEventFailed is returned when an event cannot be encoded to JSON.
	ErrEncodingEventFailed = errors.New("encoding event failed")

	// ErrBuildingQueryFailed is returned when a SQL statement cannot be built.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrRecordingEventFailed is returned when the insert fails.
	ErrRecordingEventFailed = errors.New("recording event failed")

	// ErrQueryingEventsFailed is returned when the select fails.
	ErrQueryingEventsFailed = errors.New("querying events failed")

	// ErrScanningRowFailed is returned when a result row cannot be read.
	ErrScanningRowFailed = errors.New("scanning db row failed")

	// ErrCreatingTableFailed is returned when CreateTable fails.
	ErrCreatingTableFailed = errors.New("creating journal table failed")

	// ErrUnknownEventType is returned when decoding a stored event of an unknown type.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrDecodingEventFailed is returned when a stored payload does not decode into its event type.
	ErrDecodingEventFailed = errors.New("decoding event failed")
)
