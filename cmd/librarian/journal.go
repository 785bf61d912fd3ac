package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/lending-registry-go/circulation/postgresjournal"
	"github.com/AntonStoeckl/lending-registry-go/internal/config"
)

// journalReader is the read side of postgresjournal.Journal.
type journalReader interface {
	Query(ctx context.Context, filter postgresjournal.Filter) (postgresjournal.StoredEvents, error)
}

type journalQuery struct {
	patronID   string
	isbn       string
	eventTypes []string
	from       string
	until      string
	jsonOutput bool
}

type jsonJournalEntry struct {
	SequenceNumber int64  `json:"sequence_number"`
	EventType      string `json:"event_type"`
	OccurredAt     string `json:"occurred_at"`
	EventID        string `json:"event_id"`
	CorrelationID  string `json:"correlation_id,omitempty"`
	Event          any    `json:"event"`
}

func newJournalCommand(opts *cliOptions) *cobra.Command {
	query := &journalQuery{}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List the domain events recorded in the PostgreSQL journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			zl, err := newZapLogger(cfg.Logging, opts.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			journal, closeConn, err := config.OpenJournal(cmd.Context(), cfg.Journal, newZapAdapter(zl))
			if err != nil {
				return err
			}
			defer closeConn()

			return listJournal(cmd.Context(), cmd.OutOrStdout(), journal, query)
		},
	}

	cmd.Flags().StringVar(&query.patronID, "patron", "", "Only events of this patron")
	cmd.Flags().StringVar(&query.isbn, "isbn", "", "Only events of this book")
	cmd.Flags().StringSliceVar(&query.eventTypes, "type", nil, "Only events of these types, e.g. BookLent,BookReturned")
	cmd.Flags().StringVar(&query.from, "from", "", "Only events on or after this date ("+dateLayout+")")
	cmd.Flags().StringVar(&query.until, "until", "", "Only events before this date ("+dateLayout+")")
	cmd.Flags().BoolVar(&query.jsonOutput, "json", false, "Print the events as a JSON array")

	return cmd
}

func (q *journalQuery) filter() (postgresjournal.Filter, error) {
	filter := postgresjournal.Filter{
		EventTypes: q.eventTypes,
		PatronID:   q.patronID,
		ISBN:       q.isbn,
	}

	var err error
	if filter.OccurredFrom, err = parseDate(q.from); err != nil {
		return postgresjournal.Filter{}, err
	}

	if filter.OccurredUntil, err = parseDate(q.until); err != nil {
		return postgresjournal.Filter{}, err
	}

	return filter, nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	day, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s: %w", value, dateLayout, err)
	}

	return day, nil
}

func listJournal(ctx context.Context, out io.Writer, journal journalReader, query *journalQuery) error {
	filter, err := query.filter()
	if err != nil {
		return err
	}

	stored, err := journal.Query(ctx, filter)
	if err != nil {
		return err
	}

	entries := make([]jsonJournalEntry, 0, len(stored))
	for _, row := range stored {
		event, decodeErr := row.DomainEvent()
		if decodeErr != nil {
			return fmt.Errorf("event %d: %w", row.SequenceNumber, decodeErr)
		}

		entries = append(entries, jsonJournalEntry{
			SequenceNumber: row.SequenceNumber,
			EventType:      event.EventType(),
			OccurredAt:     row.OccurredAt.UTC().Format(time.RFC3339),
			EventID:        row.Metadata.EventID,
			CorrelationID:  row.Metadata.CorrelationID,
			Event:          event,
		})
	}

	if query.jsonOutput {
		encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(entries)
	}

	return printJournal(out, entries)
}

func printJournal(out io.Writer, entries []jsonJournalEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "no journal events found")
		return err
	}

	var err error
	for _, entry := range entries {
		payload, marshalErr := jsoniter.ConfigFastest.MarshalToString(entry.Event)
		if marshalErr != nil {
			return marshalErr
		}

		_, writeErr := fmt.Fprintf(out, "%6d  %s  %-16s  %s\n", entry.SequenceNumber, entry.OccurredAt, entry.EventType, payload)
		err = errors.Join(err, writeErr)
	}

	return err
}
