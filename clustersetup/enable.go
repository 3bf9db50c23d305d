package clustersetup

import (
	"context"
	"time"

	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
	"github.com/couchbase/couchdb-cluster-setup/log"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// enable puts every node, including the coordinator, into cluster mode; nodes which are already enabled are accepted.
func (s *Setup) enable(ctx context.Context, report *Report) error {
	return s.forEachNode(ctx, s.config.Topology.Nodes(), func(ctx context.Context, node topology.Node) error {
		start := time.Now()

		err := s.enableNode(ctx, node)
		s.record(report, PhaseEnable, node, start, err)

		return err
	})
}

func (s *Setup) enableNode(ctx context.Context, node topology.Node) error {
	outcome, err := s.client.EnableCluster(ctx, node, s.config.Topology.Len(), s.config.BindAddress)
	if err != nil {
		return err
	}

	switch {
	case outcome.Accepted():
		s.logger.Debugf("(Setup) Enabled cluster mode on node %s", log.UserDataValue(node.Address()))
	case outcome.AlreadyEnabled():
		s.logger.Infof("(Setup) Node %s already has cluster mode enabled, continuing", log.UserDataValue(node.Address()))
	default:
		return &EnableClusterError{Node: node, Status: outcome.Status, Reason: reason(outcome.Reason, outcome.Error)}
	}

	setup, err := s.client.QueryClusterSetup(ctx, node)
	if err != nil {
		return err
	}

	if setup.State != couchvalue.ClusterStateEnabled {
		return &StateMismatchError{Node: node, Expected: couchvalue.ClusterStateEnabled, Actual: setup.State}
	}

	return nil
}

// reason returns the first non-empty string, nodes don't always populate the 'reason' field.
func reason(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate != "" {
			return candidate
		}
	}

	return ""
}
