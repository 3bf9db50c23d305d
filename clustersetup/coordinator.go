package clustersetup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/couchbase/couchdb-cluster-setup/couchrest"
	"github.com/couchbase/couchdb-cluster-setup/log"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// coordinate has the coordinator add each peer in topology order, and then finish the cluster.
//
// NOTE: Peers are always added one at a time, the coordinator serializes membership changes and concurrent additions
// race with each other.
func (s *Setup) coordinate(ctx context.Context, report *Report) error {
	coordinator := s.config.Topology.Coordinator()

	for _, peer := range s.config.Topology.Peers() {
		if err := s.addPeer(ctx, report, coordinator, peer); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("aborted before finishing the cluster: %w", err)
	}

	start := time.Now()

	err := s.finishCluster(ctx, coordinator)
	s.record(report, PhaseFinish, coordinator, start, err)

	return err
}

// addPeer prepares the given peer via the coordinator, then adds it to the coordinators cluster.
func (s *Setup) addPeer(ctx context.Context, report *Report, coordinator, peer topology.Node) error {
	steps := []struct {
		phase Phase
		fn    func() (*couchrest.Outcome, error)
	}{
		{
			phase: PhaseEnableRemote,
			fn: func() (*couchrest.Outcome, error) {
				return s.client.EnableClusterForRemote(ctx, coordinator, peer, s.config.Topology.Len())
			},
		},
		{
			phase: PhaseAddNode,
			fn:    func() (*couchrest.Outcome, error) { return s.client.AddNode(ctx, coordinator, peer) },
		},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("aborted before %s of peer '%s': %w", step.phase, peer, err)
		}

		start := time.Now()

		err := s.coordinatorStep(step.phase, peer, step.fn)
		s.record(report, step.phase, peer, start, err)

		if err != nil {
			return err
		}
	}

	s.logger.Infof("(Setup) Added node %s to the cluster", log.UserDataValue(peer.Address()))

	return nil
}

// coordinatorStep runs a single coordinator-directed call for the given peer, anything other than a clean 201 is an
// 'AddNodeError'.
func (s *Setup) coordinatorStep(phase Phase, peer topology.Node, fn func() (*couchrest.Outcome, error)) error {
	outcome, err := fn()
	if err != nil {
		return err
	}

	if !outcome.Success(http.StatusCreated) {
		return &AddNodeError{
			Peer:   peer,
			Phase:  string(phase),
			Status: outcome.Status,
			Reason: reason(outcome.Reason, outcome.Error),
		}
	}

	return nil
}

func (s *Setup) finishCluster(ctx context.Context, coordinator topology.Node) error {
	outcome, err := s.client.FinishCluster(ctx, coordinator)
	if err != nil {
		return err
	}

	if !outcome.Success(http.StatusCreated) {
		return &FinishClusterError{Status: outcome.Status, Reason: reason(outcome.Reason, outcome.Error)}
	}

	s.logger.Infof("(Setup) Finished cluster on coordinator %s", log.UserDataValue(coordinator.Address()))

	return nil
}
