package clustersetup

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/couchbase/couchdb-cluster-setup/couchrest"
	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// mockNodeClient is a mock type for the NodeClient type
type mockNodeClient struct {
	mock.Mock
}

// GetServerInfo provides a mock function with given fields: ctx, node
func (_m *mockNodeClient) GetServerInfo(ctx context.Context, node topology.Node) (*couchvalue.ServerInfo, error) {
	ret := _m.Called(ctx, node)

	var r0 *couchvalue.ServerInfo
	if rf, ok := ret.Get(0).(func(context.Context, topology.Node) *couchvalue.ServerInfo); ok {
		r0 = rf(ctx, node)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*couchvalue.ServerInfo)
	}

	return r0, ret.Error(1)
}

// QueryClusterSetup provides a mock function with given fields: ctx, node
func (_m *mockNodeClient) QueryClusterSetup(ctx context.Context, node topology.Node) (*couchrest.ClusterSetup, error) {
	ret := _m.Called(ctx, node)

	var r0 *couchrest.ClusterSetup
	if rf, ok := ret.Get(0).(func(context.Context, topology.Node) *couchrest.ClusterSetup); ok {
		r0 = rf(ctx, node)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*couchrest.ClusterSetup)
	}

	return r0, ret.Error(1)
}

// QueryMembership provides a mock function with given fields: ctx, node
func (_m *mockNodeClient) QueryMembership(ctx context.Context, node topology.Node) (*couchvalue.Membership, error) {
	ret := _m.Called(ctx, node)

	var r0 *couchvalue.Membership
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*couchvalue.Membership)
	}

	return r0, ret.Error(1)
}

// EnableCluster provides a mock function with given fields: ctx, node, nodeCount, bindAddress
func (_m *mockNodeClient) EnableCluster(
	ctx context.Context,
	node topology.Node,
	nodeCount int,
	bindAddress string,
) (*couchrest.Outcome, error) {
	ret := _m.Called(ctx, node, nodeCount, bindAddress)
	return outcome(ret, 0), ret.Error(1)
}

// EnableClusterForRemote provides a mock function with given fields: ctx, coordinator, remote, nodeCount
func (_m *mockNodeClient) EnableClusterForRemote(
	ctx context.Context,
	coordinator, remote topology.Node,
	nodeCount int,
) (*couchrest.Outcome, error) {
	ret := _m.Called(ctx, coordinator, remote, nodeCount)
	return outcome(ret, 0), ret.Error(1)
}

// AddNode provides a mock function with given fields: ctx, coordinator, remote
func (_m *mockNodeClient) AddNode(ctx context.Context, coordinator, remote topology.Node) (*couchrest.Outcome, error) {
	ret := _m.Called(ctx, coordinator, remote)
	return outcome(ret, 0), ret.Error(1)
}

// FinishCluster provides a mock function with given fields: ctx, coordinator
func (_m *mockNodeClient) FinishCluster(ctx context.Context, coordinator topology.Node) (*couchrest.Outcome, error) {
	ret := _m.Called(ctx, coordinator)
	return outcome(ret, 0), ret.Error(1)
}

func outcome(ret mock.Arguments, index int) *couchrest.Outcome {
	if ret.Get(index) == nil {
		return nil
	}

	return ret.Get(index).(*couchrest.Outcome)
}

var _ NodeClient = (*mockNodeClient)(nil)
