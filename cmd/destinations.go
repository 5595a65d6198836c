package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/next-trace/scg-mdb-client/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newDestinationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destinations",
		Short: "Resolve and list the destination catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())

			c, err := buildClient(cmd.Context(), cfg, logger, prometheus.NewRegistry(), cfg.MessageCount)
			if err != nil {
				return err
			}
			defer c.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tKIND\tADDRESS")

			for _, e := range c.Destinations().All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Label, e.Destination.Kind, e.Destination.Address)
			}

			return tw.Flush()
		},
	}
}
