package couchvalue

import "golang.org/x/exp/slices"

// Membership is the response of the '/_membership' endpoint; 'AllNodes' are the nodes this node knows about and
// 'ClusterNodes' those which are members of the cluster.
type Membership struct {
	AllNodes     []string `json:"all_nodes"`
	ClusterNodes []string `json:"cluster_nodes"`
}

// Consistent returns a boolean indicating whether every known node is a cluster member and the cluster has exactly the
// given number of members.
func (m Membership) Consistent(expected int) bool {
	return len(m.AllNodes) == expected && len(m.ClusterNodes) == len(m.AllNodes)
}

// Contains returns a boolean indicating whether the given Erlang node name (e.g. 'couchdb@10.0.0.1') is a member.
func (m Membership) Contains(name string) bool {
	return slices.Contains(m.ClusterNodes, name)
}
