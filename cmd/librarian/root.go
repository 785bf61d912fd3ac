package main

import (
	"io"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "librarian.yaml"

type cliOptions struct {
	configPath string
	verbose    bool
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "librarian",
		Short: "Run lending scenarios against the lending registry",
		Long: `librarian seeds a lending registry with the patrons and books of a YAML catalog
and replays a scripted scenario against it, day by day, on a simulated clock.

Notifications broadcast by the registry are printed as they happen. Domain events can
be recorded in a PostgreSQL journal, and metrics and traces exported over OTLP.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to the YAML configuration")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newSimulateCommand(opts), newCheckConfigCommand(opts), newJournalCommand(opts))
	root.SetOut(out)

	return root
}
