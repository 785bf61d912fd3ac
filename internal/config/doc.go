// Package config loads the librarian's YAML configuration and builds the infrastructure it names:
// PostgreSQL connections for the lending journal (pgx.Pool, sql.DB or sqlx.DB) and the
// OpenTelemetry trace and metric providers.
//
// A configuration file has five sections:
//
//	logging:       level (debug|info|warn|error) and format (console|json)
//	observability: OTLP gRPC endpoints for traces and metrics
//	journal:       whether to record domain events in PostgreSQL, and how to connect
//	catalog:       the patrons and books the registry starts with
//	simulation:    a start date and the scripted steps to run, day by day
//
// Parse applies defaults and validates the result, so a Config returned without error can be
// used as-is.
package config
