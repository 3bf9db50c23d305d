package clustersetup

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/couchbase/couchdb-cluster-setup/couchrest"
	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
	"github.com/couchbase/couchdb-cluster-setup/log"
	"github.com/couchbase/couchdb-cluster-setup/retry"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// verify ensures every node reports 'cluster_finished' and that every node agrees on a membership which matches the
// size of the topology.
func (s *Setup) verify(ctx context.Context, report *Report) error {
	return s.forEachNode(ctx, s.config.Topology.Nodes(), func(ctx context.Context, node topology.Node) error {
		start := time.Now()

		err := s.verifyNode(ctx, node)
		s.record(report, PhaseVerify, node, start, err)

		return err
	})
}

func (s *Setup) verifyNode(ctx context.Context, node topology.Node) error {
	state, err := s.settledState(ctx, node)
	if err != nil {
		return err
	}

	if state != couchvalue.ClusterStateFinished {
		return &VerificationError{
			Kind:     VerificationKindState,
			Node:     node,
			Expected: string(couchvalue.ClusterStateFinished),
			Actual:   state.String(),
		}
	}

	membership, err := s.client.QueryMembership(ctx, node)
	if err != nil {
		return err
	}

	return checkMembership(node, membership, s.config.Topology.Len())
}

// settledState returns the state of the given node, polling whilst the node is still transitioning out of
// 'cluster_enabled' for up to 'VerifyAttempts' attempts.
func (s *Setup) settledState(ctx context.Context, node topology.Node) (couchvalue.ClusterState, error) {
	retryer := retry.NewRetryer(retry.RetryerOptions[*couchrest.ClusterSetup]{
		Algorithm:  retry.AlgorithmConstant,
		MaxRetries: s.config.VerifyAttempts,
		MinDelay:   s.config.VerifyInterval,
		MaxDelay:   s.config.VerifyInterval,
		ShouldRetry: func(_ *retry.Context, setup *couchrest.ClusterSetup, _ error) bool {
			return setup.State == couchvalue.ClusterStateEnabled
		},
		Log: func(ctx *retry.Context, setup *couchrest.ClusterSetup, _ error) {
			s.logger.Debugf("(Setup) Node %s is still in state '%s', waiting for it to settle (attempt %d)",
				log.UserDataValue(node.Address()), setup.State, ctx.Attempt())
		},
	})

	setup, err := retryer.DoWithContext(ctx, func(ctx *retry.Context) (*couchrest.ClusterSetup, error) {
		setup, err := s.client.QueryClusterSetup(ctx, node)
		if err != nil {
			// The client has already retried any temporary failure
			return nil, retry.NewAbortRetriesError(err)
		}

		return setup, nil
	})

	var aborted *retry.RetriesAbortedError
	if errors.As(err, &aborted) {
		return "", aborted.Unwrap()
	}

	// Running out of attempts leaves us with the last reading, which is reported as a verification failure
	if retry.IsRetriesExhausted(err) && setup != nil {
		return setup.State, nil
	}

	if err != nil {
		return "", err
	}

	return setup.State, nil
}

// checkMembership returns a 'VerificationError' unless the node knows about exactly 'expected' nodes, all of which are
// members of the cluster.
func checkMembership(node topology.Node, membership *couchvalue.Membership, expected int) error {
	if len(membership.AllNodes) != expected {
		return &VerificationError{
			Kind:     VerificationKindMembershipCount,
			Node:     node,
			Expected: strconv.Itoa(expected) + " known node(s)",
			Actual:   strconv.Itoa(len(membership.AllNodes)),
		}
	}

	if len(membership.ClusterNodes) != len(membership.AllNodes) {
		return &VerificationError{
			Kind:     VerificationKindMembershipCount,
			Node:     node,
			Expected: strconv.Itoa(len(membership.AllNodes)) + " cluster node(s)",
			Actual:   strconv.Itoa(len(membership.ClusterNodes)),
		}
	}

	return nil
}
