package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mdbclient",
		Short:         "Destination publisher client",
		Long:          "Publishes numbered text messages to a primary queue or topic and a fixed set of secondary destinations, reporting each destination's outcome independently.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newSendCmd(), newDestinationsCmd())

	return root
}

// Execute runs the root Cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
