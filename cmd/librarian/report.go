package main

import (
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
	"github.com/AntonStoeckl/lending-registry-go/internal/simulation"
)

type jsonReport struct {
	RunID      string         `json:"run_id"`
	Outcomes   []jsonOutcome  `json:"outcomes"`
	Failures   int            `json:"failures"`
	Alerts     int            `json:"overdue_alerts"`
	Statistics jsonStatistics `json:"statistics"`
	Overdue    []jsonLoan     `json:"overdue_loans"`
}

type jsonOutcome struct {
	Day      int       `json:"day"`
	Date     string    `json:"date"`
	Action   string    `json:"action"`
	PatronID string    `json:"patron_id,omitempty"`
	ISBN     string    `json:"isbn,omitempty"`
	Loan     *jsonLoan `json:"loan,omitempty"`
	Alerts   int       `json:"alerts,omitempty"`
	Failure  string    `json:"failure,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type jsonLoan struct {
	TransactionID string `json:"transaction_id"`
	PatronID      string `json:"patron_id"`
	ISBN          string `json:"isbn"`
	BorrowedOn    string `json:"borrowed_on"`
	DueOn         string `json:"due_on"`
	ReturnedOn    string `json:"returned_on,omitempty"`
	Late          bool   `json:"late"`
	DaysLate      int    `json:"days_late,omitempty"`
}

type jsonStatistics struct {
	AsOf           string `json:"as_of"`
	Patrons        int    `json:"patrons"`
	Books          int    `json:"books"`
	AvailableBooks int    `json:"available_books"`
	TotalLoans     int    `json:"total_loans"`
	OpenLoans      int    `json:"open_loans"`
	OverdueLoans   int    `json:"overdue_loans"`
}

func writeJSONReport(out io.Writer, runID string, summary simulation.Summary) error {
	report := jsonReport{
		RunID:      runID,
		Outcomes:   make([]jsonOutcome, 0, len(summary.Outcomes)),
		Failures:   summary.Failures,
		Alerts:     summary.Alerts,
		Statistics: toJSONStatistics(summary.Statistics),
		Overdue:    make([]jsonLoan, 0, len(summary.OverdueLoans)),
	}

	for _, o := range summary.Outcomes {
		outcome := jsonOutcome{
			Day:      o.Day,
			Date:     o.Date.Format(dateLayout),
			Action:   string(o.Action),
			PatronID: o.PatronID,
			ISBN:     o.ISBN,
			Alerts:   o.Alerts,
		}

		if o.Loan != nil {
			loan := toJSONLoan(*o.Loan, o.Date)
			outcome.Loan = &loan
		}

		if o.Failed() {
			outcome.Failure = circulation.FailureReason(o.Err)
			outcome.Error = o.Err.Error()
		}

		report.Outcomes = append(report.Outcomes, outcome)
	}

	for _, view := range summary.OverdueLoans {
		report.Overdue = append(report.Overdue, toJSONLoan(view.Loan, view.AsOf))
	}

	encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(report)
}

func toJSONLoan(loan circulation.Loan, now time.Time) jsonLoan {
	result := jsonLoan{
		TransactionID: loan.TransactionID().String(),
		PatronID:      loan.PatronID(),
		ISBN:          loan.ISBN(),
		BorrowedOn:    loan.BorrowedOn().Format(dateLayout),
		DueOn:         loan.DueOn().Format(dateLayout),
		Late:          loan.IsLate(now),
		DaysLate:      loan.DaysLate(now),
	}

	if returnedOn, ok := loan.ReturnedOn(); ok {
		result.ReturnedOn = returnedOn.Format(dateLayout)
	}

	return result
}

func toJSONStatistics(stats circulation.Statistics) jsonStatistics {
	return jsonStatistics{
		AsOf:           stats.AsOf.Format(dateLayout),
		Patrons:        stats.Patrons,
		Books:          stats.Books,
		AvailableBooks: stats.AvailableBooks,
		TotalLoans:     stats.TotalLoans,
		OpenLoans:      stats.OpenLoans,
		OverdueLoans:   stats.OverdueLoans,
	}
}
