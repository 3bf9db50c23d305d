package couchrest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/couchbase/couchdb-cluster-setup/aprov"
	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
	"github.com/couchbase/couchdb-cluster-setup/httptools"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

func newTestClient(t *testing.T, cluster *TestCluster) *Client {
	return newTestClientWithCredentials(t, cluster, DefaultTestUsername, DefaultTestPassword)
}

func newTestClientWithCredentials(t *testing.T, cluster *TestCluster, username, password string) *Client {
	options := ClientOptions{
		Credentials: &aprov.Static{Username: username, Password: password, UserAgent: DefaultUserAgent},
	}

	if cluster != nil && cluster.Certificate() != nil {
		pool := x509.NewCertPool()
		pool.AddCert(cluster.Certificate())

		options.UseTLS = true
		options.TLSConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}

	client, err := NewClient(options)
	require.NoError(t, err)

	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)
}

func TestNewClientInvalidTimeouts(t *testing.T) {
	t.Setenv(TimeoutsEnvVar, "not json")

	_, err := NewClient(ClientOptions{Credentials: &aprov.Static{Username: "admin", Password: "password"}})
	require.Error(t, err)
}

func TestClientGetServerInfo(t *testing.T) {
	cluster := NewTestCluster(t, TestClusterOptions{Nodes: TestNodes{{Version: "2.3.1"}}})

	info, err := newTestClient(t, cluster).GetServerInfo(context.Background(), cluster.Node(0))
	require.NoError(t, err)
	require.Equal(t, couchvalue.Version("2.3.1"), info.Version)
	require.Equal(t, "Welcome", info.CouchDB)
	require.True(t, info.Supported())
}

func TestClientQueryClusterSetup(t *testing.T) {
	cluster := NewTestCluster(t, TestClusterOptions{
		Nodes: TestNodes{{}, {State: couchvalue.ClusterStateEnabled}},
	})

	client := newTestClient(t, cluster)

	setup, err := client.QueryClusterSetup(context.Background(), cluster.Node(0))
	require.NoError(t, err)
	require.Equal(t, couchvalue.ClusterStateNotEnabled, setup.State)
	require.JSONEq(t, `{"state":"not_enabled"}`, string(setup.Raw))

	setup, err = client.QueryClusterSetup(context.Background(), cluster.Node(1))
	require.NoError(t, err)
	require.Equal(t, couchvalue.ClusterStateEnabled, setup.State)
}

func TestClientEnableCluster(t *testing.T) {
	cluster := NewTestCluster(t, TestClusterOptions{Nodes: TestNodes{{}}})
	client := newTestClient(t, cluster)

	outcome, err := client.EnableCluster(context.Background(), cluster.Node(0), 3, "")
	require.NoError(t, err)
	require.True(t, outcome.Success(http.StatusCreated))
	require.Equal(t, couchvalue.ClusterStateEnabled, cluster.State(0))

	// Enabling a second time is rejected by the node, but that's an answer not an error
	outcome, err = client.EnableCluster(context.Background(), cluster.Node(0), 3, "")
	require.NoError(t, err)
	require.False(t, outcome.Success(http.StatusCreated))
	require.True(t, outcome.AlreadyEnabled())
	require.Equal(t, "400 bad_request: Cluster is already enabled", outcome.String())
}

func TestClientEnableClusterBody(t *testing.T) {
	var (
		body     map[string]any
		handlers = make(httptools.TestHandlers)
	)

	handlers.Add(http.MethodPost, string(EndpointClusterSetup),
		httptools.NewTestHandlerWithValue(t, http.StatusCreated, []byte(`{"ok":true}`), &body))

	cluster := NewTestCluster(t, TestClusterOptions{Nodes: TestNodes{{Handlers: handlers}}})

	_, err := newTestClient(t, cluster).EnableCluster(context.Background(), cluster.Node(0), 3, "")
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"action":       "enable_cluster",
		"bind_address": "0.0.0.0",
		"username":     DefaultTestUsername,
		"password":     DefaultTestPassword,
		"node_count":   "3",
	}, body)
}

func TestClientRemoteActionBodiesUseInternalAddress(t *testing.T) {
	var (
		body     map[string]any
		handlers = make(httptools.TestHandlers)
	)

	handlers.Add(http.MethodPost, string(EndpointClusterSetup),
		httptools.NewTestHandlerWithValue(t, http.StatusCreated, []byte(`{"ok":true}`), &body))

	var (
		cluster = NewTestCluster(t, TestClusterOptions{Nodes: TestNodes{{Handlers: handlers}}})
		client  = newTestClient(t, cluster)
		remote  = topology.Node{Host: "10.0.0.2", Port: 15984, InternalHost: "couchdb-1.internal", InternalPort: 5984}
	)

	_, err := client.EnableClusterForRemote(context.Background(), cluster.Node(0), remote, 2)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"action":                  "enable_cluster",
		"bind_address":            "0.0.0.0",
		"username":                DefaultTestUsername,
		"password":                DefaultTestPassword,
		"port":                    float64(5984),
		"node_count":              "2",
		"remote_node":             "couchdb-1.internal",
		"remote_current_user":     DefaultTestUsername,
		"remote_current_password": DefaultTestPassword,
	}, body)

	body = nil

	_, err = client.AddNode(context.Background(), cluster.Node(0), remote)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"action":   "add_node",
		"host":     "couchdb-1.internal",
		"port":     float64(5984),
		"username": DefaultTestUsername,
		"password": DefaultTestPassword,
	}, body)

	body = nil

	_, err = client.FinishCluster(context.Background(), cluster.Node(0))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"action": "finish_cluster"}, body)
}

func TestClientFormCluster(t *testing.T) {
	var (
		ctx     = context.Background()
		cluster = NewTestCluster(t, TestClusterOptions{})
		client  = newTestClient(t, cluster)
	)

	for index := 0; index < cluster.Len(); index++ {
		outcome, err := client.EnableCluster(ctx, cluster.Node(index), cluster.Len(), "")
		require.NoError(t, err)
		require.True(t, outcome.Success(http.StatusCreated))
	}

	for index := 1; index < cluster.Len(); index++ {
		outcome, err := client.EnableClusterForRemote(ctx, cluster.Node(0), cluster.Node(index), cluster.Len())
		require.NoError(t, err)
		require.True(t, outcome.Success(http.StatusCreated))

		outcome, err = client.AddNode(ctx, cluster.Node(0), cluster.Node(index))
		require.NoError(t, err)
		require.True(t, outcome.Success(http.StatusCreated))
	}

	outcome, err := client.FinishCluster(ctx, cluster.Node(0))
	require.NoError(t, err)
	require.True(t, outcome.Success(http.StatusCreated))

	for index := 0; index < cluster.Len(); index++ {
		setup, err := client.QueryClusterSetup(ctx, cluster.Node(index))
		require.NoError(t, err)
		require.Equal(t, couchvalue.ClusterStateFinished, setup.State)

		membership, err := client.QueryMembership(ctx, cluster.Node(index))
		require.NoError(t, err)
		require.True(t, membership.Consistent(cluster.Len()))
		require.True(t, membership.Contains(cluster.Name(2)))
	}
}

func TestClientAddNodeConflict(t *testing.T) {
	var (
		ctx     = context.Background()
		cluster = NewTestCluster(t, TestClusterOptions{Nodes: TestNodes{{}, {State: couchvalue.ClusterStateEnabled}}})
		client  = newTestClient(t, cluster)
	)

	outcome, err := client.AddNode(ctx, cluster.Node(0), cluster.Node(1))
	require.NoError(t, err)
	require.True(t, outcome.Success(http.StatusCreated))

	outcome, err = client.AddNode(ctx, cluster.Node(0), cluster.Node(1))
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, outcome.Status)
	require.Equal(t, "conflict", outcome.Error)
}

func TestClientUnauthorized(t *testing.T) {
	var (
		ctx     = context.Background()
		cluster = NewTestCluster(t, TestClusterOptions{Nodes: TestNodes{{}}})
		client  = newTestClientWithCredentials(t, cluster, "admin", "wrong")
	)

	_, err := client.QueryClusterSetup(ctx, cluster.Node(0))
	require.True(t, IsNetworkError(err))
	require.True(t, httptools.IsAuthError(err))

	outcome, err := client.EnableCluster(ctx, cluster.Node(0), 1, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, outcome.Status)
	require.Equal(t, "Name or password is incorrect.", outcome.Reason)
	require.Equal(t, couchvalue.ClusterStateNotEnabled, cluster.State(0))
}

func TestClientNetworkErrors(t *testing.T) {
	type test struct {
		name    string
		handler http.HandlerFunc
		get     bool
	}

	tests := []*test{
		{
			name:    "GetNonJSON",
			handler: httptools.NewTestHandler(t, http.StatusOK, []byte("<html></html>")),
			get:     true,
		},
		{
			name:    "GetNotFound",
			handler: httptools.NewTestHandler(t, http.StatusNotFound, []byte(`{"error":"not_found"}`)),
			get:     true,
		},
		{
			name:    "GetSocketClosed",
			handler: httptools.NewTestHandlerWithHijack(t),
			get:     true,
		},
		{
			name:    "PostNonJSON",
			handler: httptools.NewTestHandler(t, http.StatusInternalServerError, []byte("Internal Server Error")),
		},
		{
			name:    "PostEmptyBody",
			handler: httptools.NewTestHandler(t, http.StatusCreated, nil),
		},
		{
			name:    "PostSocketClosed",
			handler: httptools.NewTestHandlerWithHijack(t),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handlers := make(httptools.TestHandlers)
			handlers.Add(http.MethodGet, string(EndpointClusterSetup), test.handler)
			handlers.Add(http.MethodPost, string(EndpointClusterSetup), test.handler)

			var (
				cluster = NewTestCluster(t, TestClusterOptions{Nodes: TestNodes{{Handlers: handlers}}})
				client  = newTestClient(t, cluster)
				err     error
			)

			if test.get {
				_, err = client.QueryClusterSetup(context.Background(), cluster.Node(0))
			} else {
				_, err = client.EnableCluster(context.Background(), cluster.Node(0), 1, "")
			}

			var networkErr *NetworkError

			require.ErrorAs(t, err, &networkErr)
			require.Equal(t, cluster.Node(0), networkErr.Node)
		})
	}
}

// slowHandler answers only after the given delay, or once the client gives up on the request.
func slowHandler(delay time.Duration) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-request.Context().Done():
		case <-time.After(delay):
			writer.WriteHeader(http.StatusOK)
		}
	}
}

func TestClientTimeout(t *testing.T) {
	type test struct {
		name string
		call func(client *Client, node topology.Node) error
	}

	tests := []*test{
		{
			name: "QueryClusterSetup",
			call: func(client *Client, node topology.Node) error {
				_, err := client.QueryClusterSetup(context.Background(), node)
				return err
			},
		},
		{
			name: "AddNode",
			call: func(client *Client, node topology.Node) error {
				_, err := client.AddNode(context.Background(), node, node)
				return err
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv(ClientTimeoutEnvVar, "50ms")
			t.Setenv(RequestRetriesEnvVar, "1")

			handlers := make(httptools.TestHandlers)
			handlers.Add(http.MethodGet, string(EndpointClusterSetup), slowHandler(time.Second))
			handlers.Add(http.MethodPost, string(EndpointClusterSetup), slowHandler(time.Second))

			cluster := NewTestCluster(t, TestClusterOptions{Nodes: TestNodes{{Handlers: handlers}}})

			err := test.call(newTestClient(t, cluster), cluster.Node(0))

			var networkErr *NetworkError

			require.ErrorAs(t, err, &networkErr)
			require.True(t, networkErr.Timeout())
			require.Equal(t, cluster.Node(0), networkErr.Node)
		})
	}
}

func TestClientUnreachableNode(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	cluster := NewTestCluster(t, TestClusterOptions{Nodes: TestNodes{{}}})
	client := newTestClient(t, cluster)

	node := cluster.Node(0)
	node.Port = topology.MustParse(server.Listener.Addr().String()).Coordinator().Port

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.QueryMembership(ctx, node)
	require.True(t, IsNetworkError(err))

	_, err = client.FinishCluster(context.Background(), node)
	require.True(t, IsNetworkError(err))
}

func TestClientRetriesGet(t *testing.T) {
	handlers := make(httptools.TestHandlers)
	handlers.Add(http.MethodGet, string(EndpointMembership), httptools.NewTestHandlerWithRetries(t, 2,
		http.StatusServiceUnavailable, http.StatusOK, "", []byte(`{"all_nodes":["a"],"cluster_nodes":["a"]}`)))

	cluster := NewTestCluster(t, TestClusterOptions{Nodes: TestNodes{{Handlers: handlers}}})

	membership, err := newTestClient(t, cluster).QueryMembership(context.Background(), cluster.Node(0))
	require.NoError(t, err)
	require.True(t, membership.Consistent(1))
}

func TestClientNeverRetriesPost(t *testing.T) {
	handlers := make(httptools.TestHandlers)
	handlers.Add(http.MethodPost, string(EndpointClusterSetup), httptools.NewTestHandler(t,
		http.StatusServiceUnavailable, []byte(`{"error":"unavailable","reason":"try later"}`)))

	cluster := NewTestCluster(t, TestClusterOptions{Nodes: TestNodes{{Handlers: handlers}}})

	outcome, err := newTestClient(t, cluster).FinishCluster(context.Background(), cluster.Node(0))
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, outcome.Status)
	require.Len(t, cluster.Actions(), 1)
}

func TestClientTLS(t *testing.T) {
	cluster := NewTestCluster(t, TestClusterOptions{
		Nodes:     TestNodes{{}},
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	})

	require.True(t, cluster.Topology().UseTLS)

	setup, err := newTestClient(t, cluster).QueryClusterSetup(context.Background(), cluster.Node(0))
	require.NoError(t, err)
	require.Equal(t, couchvalue.ClusterStateNotEnabled, setup.State)
}
