// Package clustersetup forms a set of independent CouchDB nodes into a single cluster.
//
// A run is made up of strictly ordered phases:
//  1. Pre-flight, every node must be reachable, supported and report 'not_enabled'.
//  2. Enable, every node is put into cluster mode.
//  3. Coordinate, the first node adds every other node in topology order and then finishes the cluster.
//  4. Verify, every node must report 'cluster_finished' along with a membership matching the topology.
//
// The first failure aborts the run, nothing is rolled back.
package clustersetup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/couchbase/couchdb-cluster-setup/format"
	"github.com/couchbase/couchdb-cluster-setup/hofp"
	"github.com/couchbase/couchdb-cluster-setup/log"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// Setup drives the formation of a single cluster.
type Setup struct {
	client NodeClient
	config Config
	logger log.WrappedLogger
}

// New returns a new setup which will use the given client to form the configured topology into a cluster.
//
// NOTE: A 'ConfigError' is returned if the config is invalid, in which case no requests will have been sent.
func New(client NodeClient, config Config, logger log.Logger) (*Setup, error) {
	if client == nil {
		return nil, NewConfigError("client", errors.New("a node client is required"))
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &Setup{client: client, config: config, logger: log.NewWrappedLogger(logger)}, nil
}

// Topology returns the topology being formed.
func (s *Setup) Topology() *topology.Topology {
	return s.config.Topology
}

// Run forms the cluster, returning a report of every phase which was attempted. The report is returned even when the
// run fails.
func (s *Setup) Run(ctx context.Context) (*Report, error) {
	report := newReport(uuid.NewString(), s.config.Topology)
	defer report.finish()

	s.logger.Infof("(Setup) Forming cluster from %d node(s) %s, run %s", s.config.Topology.Len(),
		log.UserDataValue(s.config.Topology.String()), report.RunID)

	phases := []struct {
		name string
		fn   func(ctx context.Context, report *Report) error
	}{
		{name: "pre-flight", fn: s.preflight},
		{name: "enable", fn: s.enable},
		{name: "coordinate", fn: s.coordinate},
		{name: "verify", fn: s.verify},
	}

	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("run aborted before %s: %w", phase.name, err)
		}

		start := time.Now()

		s.logger.Infof("(Setup) Starting %s phase", phase.name)

		if err := phase.fn(ctx, report); err != nil {
			s.logger.Errorf("(Setup) Failed %s phase after %s: %v", phase.name, format.Duration(time.Since(start)), err)
			return report, err
		}

		s.logger.Infof("(Setup) Completed %s phase in %s", phase.name, format.Duration(time.Since(start)))
	}

	s.logger.Infof("(Setup) Cluster formed successfully")

	return report, nil
}

// forEachNode runs the given function for every node using a fail-fast pool of 'Concurrency' workers, the first error
// is returned.
func (s *Setup) forEachNode(
	ctx context.Context,
	nodes []topology.Node,
	fn func(ctx context.Context, node topology.Node) error,
) error {
	return hofp.ForEach(hofp.Options{
		Context:   ctx,
		Size:      s.config.Concurrency,
		LogPrefix: "(Setup)",
		Logger:    s.logger.Logger,
	}, nodes, fn)
}

// record adds the result of the given phase to the report.
func (s *Setup) record(report *Report, phase Phase, node topology.Node, start time.Time, err error) {
	result := PhaseResult{Phase: phase, Node: node, Passed: err == nil, Duration: time.Since(start)}

	var rejection ProtocolRejectionError

	switch {
	case err == nil:
	case errors.As(err, &rejection) && rejection.RemoteReason() != "":
		result.Reason = rejection.RemoteReason()
	default:
		result.Reason = err.Error()
	}

	report.add(result)
}
