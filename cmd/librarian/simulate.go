package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
	"github.com/AntonStoeckl/lending-registry-go/circulation/oteladapters"
	"github.com/AntonStoeckl/lending-registry-go/circulation/postgresjournal"
	"github.com/AntonStoeckl/lending-registry-go/internal/config"
	"github.com/AntonStoeckl/lending-registry-go/internal/simulation"
)

const (
	instrumentationName = "github.com/AntonStoeckl/lending-registry-go/cmd/librarian"
	shutdownTimeout     = 5 * time.Second
)

func newSimulateCommand(opts *cliOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Seed the registry from the catalog and run the scripted scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulation(cmd.Context(), cmd.OutOrStdout(), opts, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print a JSON report instead of the console transcript")

	return cmd
}

func runSimulation(ctx context.Context, out io.Writer, opts *cliOptions, jsonOutput bool) (err error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	zl, err := newZapLogger(cfg.Logging, opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	logger := newZapAdapter(zl)

	runID := uuid.NewString()
	ctx = postgresjournal.WithCorrelationID(ctx, runID)
	logger.Info("simulation starting", "run_id", runID, "config", opts.configPath)

	start, err := cfg.Simulation.Start()
	if err != nil {
		return err
	}

	clock := circulation.NewManualClock(start)
	screen := newConsole(out)

	registryOptions := []circulation.Option{circulation.WithClock(clock), circulation.WithLogger(logger)}
	if !jsonOutput {
		registryOptions = append(registryOptions, circulation.WithMessageSink(screen))
	}

	if cfg.Observability.Enabled {
		providers, providerErr := config.NewObservabilityProviders(ctx, cfg.Observability)
		if providerErr != nil {
			return providerErr
		}
		defer func() { err = errors.Join(err, shutdownProviders(providers)) }()

		registryOptions = append(registryOptions,
			circulation.WithMetrics(oteladapters.NewMetricsCollector(providers.MeterProvider.Meter(instrumentationName))),
			circulation.WithTracing(oteladapters.NewTracingCollector(providers.TracerProvider.Tracer(instrumentationName))),
		)
	}

	if cfg.Journal.Enabled {
		journal, closeConn, journalErr := config.OpenJournal(ctx, cfg.Journal, logger)
		if journalErr != nil {
			return journalErr
		}
		defer closeConn()

		registryOptions = append(registryOptions, circulation.WithJournal(journal))
	}

	registry, err := circulation.NewRegistry(registryOptions...)
	if err != nil {
		return err
	}

	if err = simulation.Seed(ctx, registry, cfg.Catalog); err != nil {
		return err
	}

	runnerOptions := []simulation.Option{simulation.WithLogger(logger)}
	if !jsonOutput {
		runnerOptions = append(runnerOptions, simulation.WithOutcomeHandler(screen.Outcome))
	}

	runner, err := simulation.NewRunner(registry, clock, runnerOptions...)
	if err != nil {
		return err
	}

	summary, runErr := runner.Run(ctx, cfg.Simulation.Steps)
	logger.Info("simulation finished", "run_id", runID, "steps", len(summary.Outcomes), "rejected", summary.Failures)

	if jsonOutput {
		return errors.Join(runErr, writeJSONReport(out, runID, summary))
	}

	screen.Summary(summary)

	return runErr
}

func shutdownProviders(providers *config.ObservabilityProviders) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return providers.Shutdown(ctx)
}
