package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/couchbase/couchdb-cluster-setup/clustersetup"
	"github.com/couchbase/couchdb-cluster-setup/couchrest"
	"github.com/couchbase/couchdb-cluster-setup/log"
)

type formOptions struct {
	bindAddress    string
	concurrency    int
	verifyAttempts int
	verifyInterval time.Duration
	skipIfFormed   bool
}

func newFormCommand(global *globalOptions, args []string, streams streams) *cobra.Command {
	options := formOptions{}

	command := &cobra.Command{
		Use:   "form",
		Short: "Form the given nodes into a cluster",
		Long: "Enable cluster mode on every node, add each node to the first (the coordinator) and finish the " +
			"cluster. Every node must be fresh, a partially formed cluster is never modified.",
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			prepared, err := global.prepare(args, streams)
			if err != nil {
				return err
			}

			setup, err := prepared.setup(options)
			if err != nil {
				return err
			}

			logger := log.NewWrappedLogger(prepared.logger)

			if options.skipIfFormed {
				status, err := setup.Status(command.Context())
				if err != nil {
					return err
				}

				if status.Formed() {
					logger.Infof("(CLI) Cluster is already formed, nothing to do")
					return status.WriteSummary(streams.out)
				}
			}

			report, err := setup.Run(command.Context())

			if summaryErr := report.WriteSummary(streams.out); summaryErr != nil {
				logger.Warnf("(CLI) Failed to write run summary: %s", summaryErr)
			}

			return err
		},
	}

	flags := command.Flags()
	flags.StringVar(&options.bindAddress, "bind-address", couchrest.DefaultBindAddress,
		"the address each node is told to listen on")
	flags.IntVar(&options.concurrency, "concurrency", 1, "number of nodes contacted at once during the per node phases")
	flags.IntVar(&options.verifyAttempts, "verify-attempts", 1,
		"number of times verification is attempted whilst nodes are still finishing")
	flags.DurationVar(&options.verifyInterval, "verify-interval", clustersetup.DefaultVerifyInterval,
		"time waited between verification attempts")
	flags.BoolVar(&options.skipIfFormed, "skip-if-formed", false,
		"exit successfully without changes when the nodes already form the cluster")

	return command
}
