package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
	"github.com/AntonStoeckl/lending-registry-go/internal/config"
	"github.com/AntonStoeckl/lending-registry-go/internal/simulation"
)

const (
	dateLayout    = "2006-01-02"
	overduePrefix = "OVERDUE"
)

var (
	colorInfo    = lipgloss.Color("#2196F3")
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorDanger  = lipgloss.Color("#e53935")
)

// console renders notifications, step outcomes and the final summary for humans.
// It is also the registry's MessageSink.
type console struct {
	out io.Writer

	header  lipgloss.Style
	step    lipgloss.Style
	notice  lipgloss.Style
	overdue lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

func newConsole(out io.Writer) *console {
	renderer := lipgloss.NewRenderer(out)

	return &console{
		out:     out,
		header:  renderer.NewStyle().Bold(true).Foreground(colorInfo),
		step:    renderer.NewStyle().Bold(true),
		notice:  renderer.NewStyle().Foreground(colorSuccess),
		overdue: renderer.NewStyle().Bold(true).Foreground(colorDanger),
		failure: renderer.NewStyle().Foreground(colorWarning),
		muted:   renderer.NewStyle().Faint(true),
	}
}

// Deliver prints one notification as received by one patron.
func (c *console) Deliver(patronID string, patronName string, message string) {
	style := c.notice
	if strings.HasPrefix(message, overduePrefix) {
		style = c.overdue
	}

	c.printf("    %s %s\n", c.muted.Render(fmt.Sprintf("to %s <%s>:", patronName, patronID)), style.Render(message))
}

// Outcome prints one scripted step.
func (c *console) Outcome(o simulation.Outcome) {
	c.printf("%s %s\n", c.step.Render(fmt.Sprintf("[day %d, %s] %s", o.Day, o.Date.Format(dateLayout), o.Action)), subject(o))

	switch {
	case o.Failed():
		c.printf("    %s\n", c.failure.Render("rejected: "+o.Err.Error()))
	case o.Loan != nil:
		c.printf("    %s\n", c.muted.Render(o.Loan.Describe(o.Date)))
	case o.Statistics != nil:
		c.statistics(*o.Statistics)
	case o.Action == config.ActionNotifyOverdue:
		c.printf("    %s\n", c.muted.Render(fmt.Sprintf("%d overdue alert(s) sent", o.Alerts)))
	}
}

// Summary prints the end-of-run report.
func (c *console) Summary(s simulation.Summary) {
	c.printf("\n%s\n", c.header.Render("Summary"))
	c.printf("  steps: %d, rejected: %d, overdue alerts: %d\n", len(s.Outcomes), s.Failures, s.Alerts)
	c.statistics(s.Statistics)

	if len(s.OverdueLoans) == 0 {
		return
	}

	c.printf("\n%s\n", c.header.Render("Overdue loans"))

	for _, view := range s.OverdueLoans {
		c.printf("  %s\n", c.overdue.Render(fmt.Sprintf("%s: '%s' held by %s, %d day(s) late",
			view.Loan.TransactionID(), view.Title, view.PatronName, view.DaysLate)))
	}
}

func (c *console) statistics(stats circulation.Statistics) {
	c.printf("    %s\n", c.muted.Render(fmt.Sprintf(
		"as of %s: %d patrons, %d books (%d available), %d loans (%d open, %d overdue)",
		stats.AsOf.Format(dateLayout), stats.Patrons, stats.Books, stats.AvailableBooks,
		stats.TotalLoans, stats.OpenLoans, stats.OverdueLoans)))
}

func (c *console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func subject(o simulation.Outcome) string {
	parts := make([]string, 0, 2)
	if o.PatronID != "" {
		parts = append(parts, "patron "+o.PatronID)
	}

	if o.ISBN != "" {
		parts = append(parts, "book "+o.ISBN)
	}

	return strings.Join(parts, ", ")
}

var _ circulation.MessageSink = (*console)(nil)
