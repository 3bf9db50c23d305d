package couchrest

import (
	"net/http/httptest"

	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
	"github.com/couchbase/couchdb-cluster-setup/httptools"
)

// TestNodeOptions configures a single node of a test cluster.
type TestNodeOptions struct {
	// State is the initial cluster setup state, defaults to 'not_enabled'.
	State couchvalue.ClusterState

	// Version is reported by 'GET /', defaults to the latest version.
	Version couchvalue.Version

	// Handlers override the default endpoint handlers of this node.
	Handlers httptools.TestHandlers

	// Action intercepts '/_cluster_setup' actions sent to this node before they're applied, it should return false to
	// let the node handle the action as normal.
	Action TestActionHandler
}

// TestNodes is a readability wrapper around the node options of a test cluster.
type TestNodes []*TestNodeOptions

// testNode is the mutable state of a single fake node, guarded by the cluster lock.
type testNode struct {
	index   int
	name    string
	server  *httptest.Server
	state   couchvalue.ClusterState
	version couchvalue.Version
	options *TestNodeOptions

	// group is shared by every node in the same cluster, initially each node is alone.
	group *testGroup
}

// testGroup is the set of nodes which are members of the same cluster, in the order they joined.
type testGroup struct {
	members []*testNode
}

// names returns the Erlang node names of the group members.
func (g *testGroup) names() []string {
	names := make([]string, 0, len(g.members))
	for _, member := range g.members {
		names = append(names, member.name)
	}

	return names
}

// contains returns a boolean indicating whether the given node is in the group.
func (g *testGroup) contains(node *testNode) bool {
	for _, member := range g.members {
		if member == node {
			return true
		}
	}

	return false
}
