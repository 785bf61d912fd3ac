package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/lending-registry-go/internal/config"
)

func newCheckConfigCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration file without running anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			journal := "disabled"
			if cfg.Journal.Enabled {
				journal = fmt.Sprintf("enabled (%s, table %s)", cfg.Journal.Adapter, cfg.Journal.Table)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d patrons, %d books, %d steps, journal %s\n",
				opts.configPath, len(cfg.Catalog.Patrons), len(cfg.Catalog.Books), len(cfg.Simulation.Steps), journal)

			return err
		},
	}
}
