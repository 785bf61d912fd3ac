package simulation

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
	"github.com/AntonStoeckl/lending-registry-go/internal/config"
)

// ErrNilRegistry is returned by NewRunner without a registry.
var ErrNilRegistry = errors.New("registry must not be nil")

// ErrNilClock is returned by NewRunner without a clock.
var ErrNilClock = errors.New("clock must not be nil")

// Outcome is the result of one scripted step.
type Outcome struct {
	Day      int
	Date     time.Time
	Action   config.Action
	PatronID string
	ISBN     string

	// Loan is set for successful borrow and return steps.
	Loan *circulation.Loan

	// Alerts is the number of overdue notices sent by a notify-overdue step.
	Alerts int

	// Statistics is set for report steps.
	Statistics *circulation.Statistics

	// Err is the business failure of the step, if any.
	Err error
}

// Failed reports whether the step was rejected.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Summary is the result of a whole run.
type Summary struct {
	Outcomes     []Outcome
	Failures     int
	Alerts       int
	Statistics   circulation.Statistics
	OverdueLoans []circulation.LoanView
}

// Option configures a Runner.
type Option func(*Runner) error

// WithLogger sets the logger for the Runner.
func WithLogger(logger circulation.Logger) Option {
	return func(r *Runner) error {
		r.logger = logger
		return nil
	}
}

// WithOutcomeHandler registers a callback invoked after every step, in order.
func WithOutcomeHandler(handler func(Outcome)) Option {
	return func(r *Runner) error {
		r.onOutcome = handler
		return nil
	}
}

// Runner replays scripted steps. Day 0 is the clock's time when the Runner is created.
type Runner struct {
	registry  *circulation.Registry
	clock     *circulation.ManualClock
	start     time.Time
	logger    circulation.Logger
	onOutcome func(Outcome)
}

// NewRunner creates a Runner driving registry, which must read its time from clock.
func NewRunner(registry *circulation.Registry, clock *circulation.ManualClock, options ...Option) (*Runner, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}

	if clock == nil {
		return nil, ErrNilClock
	}

	r := &Runner{registry: registry, clock: clock, start: clock.Now()}

	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Run executes steps ordered by day; steps on the same day keep their scripted order.
// Business failures are collected in the outcomes; only a canceled ctx stops the run early,
// in which case the partial Summary is returned together with ctx's error.
func (r *Runner) Run(ctx context.Context, steps []config.StepConfig) (Summary, error) {
	ordered := slices.Clone(steps)
	slices.SortStableFunc(ordered, func(a, b config.StepConfig) int { return a.Day - b.Day })

	var summary Summary

	for _, step := range ordered {
		if err := ctx.Err(); err != nil {
			return r.finish(summary), err
		}

		r.clock.Set(r.start.AddDate(0, 0, step.Day))

		outcome := r.execute(ctx, step)
		summary.Outcomes = append(summary.Outcomes, outcome)
		summary.Alerts += outcome.Alerts

		if outcome.Failed() {
			summary.Failures++
		}

		r.log(outcome)

		if r.onOutcome != nil {
			r.onOutcome(outcome)
		}
	}

	return r.finish(summary), nil
}

func (r *Runner) execute(ctx context.Context, step config.StepConfig) Outcome {
	outcome := Outcome{
		Day:      step.Day,
		Date:     r.clock.Now(),
		Action:   step.Action,
		PatronID: step.Patron,
		ISBN:     step.ISBN,
	}

	switch step.Action {
	case config.ActionBorrow:
		outcome.Loan, outcome.Err = loanOrNil(r.registry.Borrow(ctx, step.Patron, step.ISBN))
	case config.ActionReturn:
		outcome.Loan, outcome.Err = loanOrNil(r.registry.Return(ctx, step.Patron, step.ISBN))
	case config.ActionNotifyOverdue:
		outcome.Alerts = r.registry.NotifyOverdue(ctx)
	case config.ActionRemovePatron:
		outcome.Err = r.registry.RemovePatron(ctx, step.Patron)
	case config.ActionRemoveBook:
		outcome.Err = r.registry.RemoveBook(ctx, step.ISBN)
	case config.ActionReport:
		stats := r.registry.Statistics()
		outcome.Statistics = &stats
	default:
		outcome.Err = step.Action.Validate()
	}

	return outcome
}

func (r *Runner) finish(summary Summary) Summary {
	summary.Statistics = r.registry.Statistics()
	summary.OverdueLoans = r.registry.OverdueLoans()

	return summary
}

func (r *Runner) log(outcome Outcome) {
	if r.logger == nil {
		return
	}

	args := []any{"day", outcome.Day, "action", string(outcome.Action)}
	if outcome.PatronID != "" {
		args = append(args, "patron_id", outcome.PatronID)
	}

	if outcome.ISBN != "" {
		args = append(args, "isbn", outcome.ISBN)
	}

	if outcome.Failed() {
		r.logger.Debug("simulation step rejected", append(args, "reason", circulation.FailureReason(outcome.Err))...)
		return
	}

	r.logger.Debug("simulation step completed", args...)
}

func loanOrNil(loan circulation.Loan, err error) (*circulation.Loan, error) {
	if err != nil {
		return nil, err
	}

	return &loan, nil
}
