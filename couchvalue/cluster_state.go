// Package couchvalue contains the values reported by the CouchDB administrative endpoints used during cluster
// formation.
package couchvalue

// ClusterState is the cluster setup state reported by a node's '/_cluster_setup' endpoint.
//
// NOTE: States are always queried fresh from the node, they must never be cached between phases.
type ClusterState string

const (
	// ClusterStateNotEnabled means the node is a fresh single node instance.
	ClusterStateNotEnabled ClusterState = "not_enabled"

	// ClusterStateEnabled means the node is ready to be joined to a cluster.
	ClusterStateEnabled ClusterState = "cluster_enabled"

	// ClusterStateFinished means the node is a member of a finalized cluster.
	ClusterStateFinished ClusterState = "cluster_finished"

	// ClusterStateSingleNodeDisabled and ClusterStateSingleNodeEnabled are reported by nodes configured as single
	// node deployments, neither can take part in formation.
	ClusterStateSingleNodeDisabled ClusterState = "single_node_disabled"
	ClusterStateSingleNodeEnabled  ClusterState = "single_node_enabled"
)

// Known returns a boolean indicating whether this is one of the three states which take part in cluster formation.
func (c ClusterState) Known() bool {
	switch c {
	case ClusterStateNotEnabled, ClusterStateEnabled, ClusterStateFinished:
		return true
	}

	return false
}

// Clustered returns a boolean indicating whether the node has already progressed past 'not_enabled'.
func (c ClusterState) Clustered() bool {
	return c == ClusterStateEnabled || c == ClusterStateFinished
}

func (c ClusterState) String() string {
	if c == "" {
		return "<empty>"
	}

	return string(c)
}
