package clustersetup

import (
	"context"
	"time"

	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
	"github.com/couchbase/couchdb-cluster-setup/log"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// preflight ensures that every node is running a supported version and is a fresh single node instance, no node is
// modified unless every node passes.
func (s *Setup) preflight(ctx context.Context, report *Report) error {
	return s.forEachNode(ctx, s.config.Topology.Nodes(), func(ctx context.Context, node topology.Node) error {
		start := time.Now()

		err := s.preflightNode(ctx, node)
		s.record(report, PhasePreflight, node, start, err)

		return err
	})
}

func (s *Setup) preflightNode(ctx context.Context, node topology.Node) error {
	info, err := s.client.GetServerInfo(ctx, node)
	if err != nil {
		return err
	}

	if !info.Supported() {
		return &UnsupportedVersionError{Node: node, Version: info.Version}
	}

	setup, err := s.client.QueryClusterSetup(ctx, node)
	if err != nil {
		return err
	}

	s.logger.Debugf("(Setup) Node %s is running version '%s' and is in state '%s'", log.UserDataValue(node.Address()),
		info.Version, setup.State)

	switch {
	case setup.State == couchvalue.ClusterStateNotEnabled:
		return nil
	case setup.State.Clustered():
		return &AlreadyClusteredError{Node: node, State: setup.State}
	}

	return &StateMismatchError{Node: node, Expected: couchvalue.ClusterStateNotEnabled, Actual: setup.State}
}
