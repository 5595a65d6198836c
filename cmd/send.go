package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/next-trace/scg-mdb-client/config"
	"github.com/next-trace/scg-mdb-client/publisher"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// errPassFailed marks a pass in which at least one destination failed.
var errPassFailed = errors.New("one or more destinations failed")

func newSendCmd() *cobra.Command {
	var (
		topic bool
		count int
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Run one publish pass and print the report",
		Long:  "Send numbered messages to the primary queue (or topic with --topic) and every secondary destination. Exits non-zero when any destination failed.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("count") {
				count = cfg.MessageCount
			}

			logger := newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())

			c, err := buildClient(cmd.Context(), cfg, logger, prometheus.NewRegistry(), count)
			if err != nil {
				return err
			}
			defer c.Close()

			reports := c.Send(cmd.Context(), topic)
			printReports(cmd.OutOrStdout(), reports)

			if failed := publisher.Failed(reports); len(failed) > 0 {
				return fmt.Errorf("%w: %d of %d", errPassFailed, len(failed), len(reports))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&topic, "topic", false, "send to the primary topic instead of the primary queue")
	cmd.Flags().IntVar(&count, "count", publisher.MessageCount, "messages per destination (defaults to MESSAGE_COUNT)")

	return cmd
}

func printReports(w io.Writer, reports []publisher.Report) {
	for _, r := range reports {
		fmt.Fprintf(w, "Sending messages to %s\n", r.Destination)
		fmt.Fprintf(w, "The following messages will be sent to the %s destination:\n", r.Label)

		for i, text := range r.Sent {
			fmt.Fprintf(w, "Message (%d): %s\n", i, text)
		}

		if r.Err != nil {
			fmt.Fprintf(w, "FAILED %s: %v\n", r.Destination, r.Err)
		}
	}
}
