package clustersetup

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// NodeStatus is the state reported by a single node, 'Err' is populated when the node couldn't be queried.
type NodeStatus struct {
	Node  topology.Node
	State couchvalue.ClusterState
	Err   error
}

// ClusterStatus is a read-only snapshot of the formation state of every node in the topology.
type ClusterStatus struct {
	Nodes []NodeStatus

	// Membership is the membership reported by the coordinator, <nil> if it couldn't be queried.
	Membership    *couchvalue.Membership
	MembershipErr error

	expected int
}

// Formed returns a boolean indicating whether every node reports 'cluster_finished' and the coordinators membership
// matches the topology.
func (c *ClusterStatus) Formed() bool {
	for _, node := range c.Nodes {
		if node.Err != nil || node.State != couchvalue.ClusterStateFinished {
			return false
		}
	}

	return c.Membership != nil && c.Membership.Consistent(c.expected)
}

// Fresh returns a boolean indicating whether every node reports 'not_enabled' i.e. formation can begin.
func (c *ClusterStatus) Fresh() bool {
	for _, node := range c.Nodes {
		if node.Err != nil || node.State != couchvalue.ClusterStateNotEnabled {
			return false
		}
	}

	return true
}

// WriteSummary writes a human readable line per node followed by the membership of the coordinator and whether the
// cluster is formed, or untouched and ready to be formed.
func (c *ClusterStatus) WriteSummary(writer io.Writer) error {
	for _, node := range c.Nodes {
		var line string

		switch {
		case node.Err != nil:
			line = fmt.Sprintf("%-40s error: %s", node.Node, node.Err)
		case !node.State.Known():
			line = fmt.Sprintf("%-40s %s (unexpected state)", node.Node, node.State)
		default:
			line = fmt.Sprintf("%-40s %s", node.Node, node.State)
		}

		if _, err := fmt.Fprintln(writer, line); err != nil {
			return err
		}
	}

	var line string

	switch {
	case c.MembershipErr != nil:
		line = fmt.Sprintf("membership: error: %s", c.MembershipErr)
	case c.Membership != nil:
		line = fmt.Sprintf("membership: %d known, %d clustered, %d expected", len(c.Membership.AllNodes),
			len(c.Membership.ClusterNodes), c.expected)
	}

	if _, err := fmt.Fprintln(writer, line); err != nil {
		return err
	}

	if c.Fresh() {
		_, err := fmt.Fprintln(writer, "formed: false, ready to form")
		return err
	}

	_, err := fmt.Fprintf(writer, "formed: %t\n", c.Formed())

	return err
}

// Status queries every node without modifying anything. Nodes which can't be reached are recorded in the status rather
// than returned as an error, an error is only returned if the context is cancelled.
func (s *Setup) Status(ctx context.Context) (*ClusterStatus, error) {
	var (
		nodes  = s.config.Topology.Nodes()
		status = &ClusterStatus{Nodes: make([]NodeStatus, len(nodes)), expected: len(nodes)}
		lock   sync.Mutex
	)

	for index, node := range nodes {
		status.Nodes[index] = NodeStatus{Node: node}
	}

	indexes := make(map[string]int, len(nodes))
	for index, node := range nodes {
		indexes[node.Address()] = index
	}

	err := s.forEachNode(ctx, nodes, func(ctx context.Context, node topology.Node) error {
		setup, err := s.client.QueryClusterSetup(ctx, node)

		lock.Lock()
		defer lock.Unlock()

		if err != nil {
			status.Nodes[indexes[node.Address()]].Err = err
			return nil
		}

		status.Nodes[indexes[node.Address()]].State = setup.State

		return nil
	})
	if err != nil {
		return nil, err
	}

	status.Membership, status.MembershipErr = s.client.QueryMembership(ctx, s.config.Topology.Coordinator())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return status, nil
}
