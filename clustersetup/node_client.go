package clustersetup

import (
	"context"

	"github.com/couchbase/couchdb-cluster-setup/couchrest"
	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// NodeClient is the set of node control operations used to form a cluster, it's implemented by 'couchrest.Client'.
type NodeClient interface {
	GetServerInfo(ctx context.Context, node topology.Node) (*couchvalue.ServerInfo, error)
	QueryClusterSetup(ctx context.Context, node topology.Node) (*couchrest.ClusterSetup, error)
	QueryMembership(ctx context.Context, node topology.Node) (*couchvalue.Membership, error)
	EnableCluster(ctx context.Context, node topology.Node, nodeCount int, bindAddress string) (*couchrest.Outcome, error)
	EnableClusterForRemote(
		ctx context.Context,
		coordinator, remote topology.Node,
		nodeCount int,
	) (*couchrest.Outcome, error)
	AddNode(ctx context.Context, coordinator, remote topology.Node) (*couchrest.Outcome, error)
	FinishCluster(ctx context.Context, coordinator topology.Node) (*couchrest.Outcome, error)
}

var _ NodeClient = (*couchrest.Client)(nil)
