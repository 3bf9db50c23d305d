package main

import (
	"github.com/spf13/cobra"
)

func newStatusCommand(global *globalOptions, args []string, streams streams) *cobra.Command {
	var concurrency int

	command := &cobra.Command{
		Use:   "status",
		Short: "Report whether the given nodes form a cluster",
		Long:  "Query the cluster setup state of every node without modifying them, exits non-zero unless formed.",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			prepared, err := global.prepare(args, streams)
			if err != nil {
				return err
			}

			setup, err := prepared.setup(formOptions{concurrency: concurrency})
			if err != nil {
				return err
			}

			status, err := setup.Status(command.Context())
			if err != nil {
				return err
			}

			if err := status.WriteSummary(streams.out); err != nil {
				return err
			}

			if !status.Formed() {
				return errNotFormed
			}

			return nil
		},
	}

	command.Flags().IntVar(&concurrency, "concurrency", 1, "number of nodes queried at once")

	return command
}
