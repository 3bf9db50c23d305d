package couchrest

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
	"github.com/couchbase/couchdb-cluster-setup/netutil"
	"github.com/couchbase/couchdb-cluster-setup/testutil"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

const (
	// DefaultTestUsername is the admin username of a test cluster unless one is provided.
	DefaultTestUsername = "admin"

	// DefaultTestPassword is the admin password of a test cluster unless one is provided.
	DefaultTestPassword = "password"
)

// TestClusterOptions encapsulates the options which can be passed when creating a new test cluster. These options
// configure the behavior/setup of the cluster.
type TestClusterOptions struct {
	// Nodes configures each node of the cluster, three default nodes are created when empty.
	Nodes TestNodes

	// Username/Password are the admin credentials every node expects.
	Username string
	Password string

	// A non-nil TLS config indicates that the nodes should use TLS.
	TLSConfig *tls.Config
}

// TestCall is a single request received by a node of the test cluster.
type TestCall struct {
	// Node is the index of the node which received the request.
	Node int

	Method string
	Path   string

	// Action is the '/_cluster_setup' action, empty for other requests.
	Action string

	// Target is the index of the node referenced by a remote 'enable_cluster' or 'add_node' action, -1 otherwise.
	Target int
}

// TestActionRequest is a decoded '/_cluster_setup' action passed to a 'TestActionHandler'.
type TestActionRequest struct {
	TestCall

	// Body is the decoded JSON body of the request.
	Body map[string]any
}

// TestActionHandler may intercept a '/_cluster_setup' action, returning true indicates that it has written a response.
type TestActionHandler func(writer http.ResponseWriter, request *TestActionRequest) bool

// TestCluster is a set of fake CouchDB nodes used for unit testing cluster formation. Each node is served by its own
// HTTP server and implements '/', '/_cluster_setup' and '/_membership' with realistic state transitions.
type TestCluster struct {
	t       *testing.T
	lock    sync.Mutex
	options TestClusterOptions
	nodes   []*testNode
	calls   []TestCall
}

// NewTestCluster creates and starts a new test cluster using the provided options; the nodes are stopped when the test
// completes.
func NewTestCluster(t *testing.T, options TestClusterOptions) *TestCluster {
	if len(options.Nodes) == 0 {
		options.Nodes = TestNodes{{}, {}, {}}
	}

	if options.Username == "" {
		options.Username = DefaultTestUsername
	}

	if options.Password == "" {
		options.Password = DefaultTestPassword
	}

	var (
		cluster = &TestCluster{t: t, options: options}
		id      = uuid.NewString()[:8]
	)

	for index, nodeOptions := range options.Nodes {
		if nodeOptions == nil {
			nodeOptions = &TestNodeOptions{}
		}

		node := &testNode{
			index:   index,
			name:    fmt.Sprintf("couchdb@node%d.%s.test", index, id),
			state:   nodeOptions.State,
			version: nodeOptions.Version,
			options: nodeOptions,
		}

		if node.state == "" {
			node.state = couchvalue.ClusterStateNotEnabled
		}

		if node.version == "" {
			node.version = couchvalue.VersionLatest
		}

		node.group = &testGroup{members: []*testNode{node}}

		if options.TLSConfig != nil {
			node.server = httptest.NewUnstartedServer(cluster.handler(node))
			node.server.TLS = options.TLSConfig
			node.server.StartTLS()
		} else {
			node.server = httptest.NewServer(cluster.handler(node))
		}

		cluster.nodes = append(cluster.nodes, node)
	}

	t.Cleanup(cluster.Close)

	return cluster
}

// Len returns the number of nodes in the cluster.
func (c *TestCluster) Len() int {
	return len(c.nodes)
}

// Node returns the address of the node at the given index.
func (c *TestCluster) Node(index int) topology.Node {
	parsed, err := url.Parse(c.nodes[index].server.URL)
	require.NoError(c.t, err)

	port, err := strconv.ParseUint(parsed.Port(), 10, 16)
	require.NoError(c.t, err)

	return topology.Node{
		Host:         parsed.Hostname(),
		Port:         uint16(port),
		InternalHost: parsed.Hostname(),
		InternalPort: uint16(port),
	}
}

// Topology returns a topology containing every node in index order, the first node being the coordinator.
func (c *TestCluster) Topology() *topology.Topology {
	nodes := make([]topology.Node, 0, len(c.nodes))
	for index := range c.nodes {
		nodes = append(nodes, c.Node(index))
	}

	return topology.New(c.options.TLSConfig != nil, nodes...)
}

// Name returns the Erlang node name of the node at the given index.
func (c *TestCluster) Name(index int) string {
	return c.nodes[index].name
}

// State returns the current cluster setup state of the node at the given index.
func (c *TestCluster) State(index int) couchvalue.ClusterState {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.nodes[index].state
}

// SetState overrides the cluster setup state of the node at the given index.
func (c *TestCluster) SetState(index int, state couchvalue.ClusterState) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.nodes[index].state = state
}

// FormCluster joins every node into a single finished cluster, as if formation had already taken place.
func (c *TestCluster) FormCluster() {
	c.lock.Lock()
	defer c.lock.Unlock()

	group := &testGroup{members: append([]*testNode(nil), c.nodes...)}

	for _, node := range c.nodes {
		node.state = couchvalue.ClusterStateFinished
		node.group = group
	}
}

// Membership returns the membership as reported by the node at the given index.
func (c *TestCluster) Membership(index int) couchvalue.Membership {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.nodes[index].membership()
}

// Calls returns every request received by the cluster in the order they were received.
func (c *TestCluster) Calls() []TestCall {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([]TestCall(nil), c.calls...)
}

// Actions returns the '/_cluster_setup' actions received by the cluster, in the order they were received.
func (c *TestCluster) Actions() []TestCall {
	c.lock.Lock()
	defer c.lock.Unlock()

	actions := make([]TestCall, 0, len(c.calls))

	for _, call := range c.calls {
		if call.Action != "" {
			actions = append(actions, call)
		}
	}

	return actions
}

// Certificate returns the certificate which can be used to authenticate the nodes.
//
// NOTE: This will be <nil> if the cluster is not running with TLS enabled.
func (c *TestCluster) Certificate() *x509.Certificate {
	return c.nodes[0].server.Certificate()
}

// Close stops every node releasing any held resources.
func (c *TestCluster) Close() {
	for _, node := range c.nodes {
		node.server.Close()
	}
}

// handler returns the base handler for the given node, overrides provided in the node options take precedence.
func (c *TestCluster) handler(node *testNode) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		body := testutil.ReadAll(c.t, request.Body)

		call := c.record(node, request, body)

		override, ok := node.options.Handlers[fmt.Sprintf("%s:%s", request.Method, request.URL.Path)]
		if ok {
			request.Body = io.NopCloser(bytes.NewReader(body))
			override(writer, request)

			return
		}

		switch {
		case request.URL.Path == string(EndpointRoot) && request.Method == http.MethodGet:
			c.root(writer, node)
			return
		case !c.authorized(request):
			c.writeError(writer, http.StatusUnauthorized, "unauthorized", "Name or password is incorrect.")
			return
		}

		switch fmt.Sprintf("%s:%s", request.Method, request.URL.Path) {
		case http.MethodGet + ":" + string(EndpointClusterSetup):
			c.clusterSetup(writer, node)
		case http.MethodGet + ":" + string(EndpointMembership):
			c.membership(writer, node)
		case http.MethodPost + ":" + string(EndpointClusterSetup):
			c.action(writer, node, call, body)
		default:
			c.writeError(writer, http.StatusNotFound, "not_found", "Database does not exist.")
		}
	}
}

// record appends the given request to the call log, decoding the action/target of '/_cluster_setup' requests.
func (c *TestCluster) record(node *testNode, request *http.Request, body []byte) TestCall {
	call := TestCall{Node: node.index, Method: request.Method, Path: request.URL.Path, Target: -1}

	var decoded map[string]any

	if request.Method == http.MethodPost && json.Unmarshal(body, &decoded) == nil {
		call.Action, _ = decoded["action"].(string)
		call.Target = c.target(decoded)
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	c.calls = append(c.calls, call)

	return call
}

// target returns the index of the node referenced by the given action body, or -1.
func (c *TestCluster) target(body map[string]any) int {
	host, _ := body["remote_node"].(string)
	if host == "" {
		host, _ = body["host"].(string)
	}

	if host == "" {
		return -1
	}

	port := topology.DefaultPort
	if raw, ok := body["port"].(float64); ok {
		port = int(raw)
	}

	address := netutil.HostPort(host, uint16(port))

	for index := range c.nodes {
		if c.Node(index).Address() == address {
			return index
		}
	}

	return -1
}

// authorized returns a boolean indicating whether the request carries the admin credentials.
func (c *TestCluster) authorized(request *http.Request) bool {
	username, password, ok := request.BasicAuth()
	return ok && username == c.options.Username && password == c.options.Password
}

// root implements 'GET /'.
func (c *TestCluster) root(writer http.ResponseWriter, node *testNode) {
	c.writeJSON(writer, http.StatusOK, couchvalue.ServerInfo{
		CouchDB: "Welcome",
		Version: node.version,
		Vendor:  couchvalue.Vendor{Name: "The Apache Software Foundation"},
		UUID:    uuid.NewString(),
	})
}

// clusterSetup implements 'GET /_cluster_setup'.
func (c *TestCluster) clusterSetup(writer http.ResponseWriter, node *testNode) {
	c.lock.Lock()
	state := node.state
	c.lock.Unlock()

	c.writeJSON(writer, http.StatusOK, map[string]any{"state": state})
}

// membership implements 'GET /_membership'.
func (c *TestCluster) membership(writer http.ResponseWriter, node *testNode) {
	c.lock.Lock()
	membership := node.membership()
	c.lock.Unlock()

	c.writeJSON(writer, http.StatusOK, membership)
}

// action implements 'POST /_cluster_setup'.
func (c *TestCluster) action(writer http.ResponseWriter, node *testNode, call TestCall, body []byte) {
	var decoded map[string]any

	if err := json.Unmarshal(body, &decoded); err != nil {
		c.writeError(writer, http.StatusBadRequest, "bad_request", "invalid UTF-8 JSON")
		return
	}

	if node.options.Action != nil && node.options.Action(writer, &TestActionRequest{TestCall: call, Body: decoded}) {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	var target *testNode
	if call.Target >= 0 {
		target = c.nodes[call.Target]
	}

	switch call.Action {
	case ActionEnableCluster:
		if _, remote := decoded["remote_node"]; remote {
			c.enableRemote(writer, target, decoded)
			return
		}

		c.enable(writer, node)
	case ActionAddNode:
		c.addNode(writer, node, target, decoded)
	case ActionFinishCluster:
		c.finish(writer, node)
	default:
		c.writeError(writer, http.StatusBadRequest, "bad_request", "Invalid Action'")
	}
}

// enable handles a local 'enable_cluster' action.
func (c *TestCluster) enable(writer http.ResponseWriter, node *testNode) {
	if node.state != couchvalue.ClusterStateNotEnabled {
		c.writeError(writer, http.StatusBadRequest, "bad_request", ReasonClusterAlreadyEnabled)
		return
	}

	node.state = couchvalue.ClusterStateEnabled

	c.writeOK(writer)
}

// enableRemote handles an 'enable_cluster' action which the coordinator forwards to a remote node.
func (c *TestCluster) enableRemote(writer http.ResponseWriter, target *testNode, body map[string]any) {
	switch {
	case target == nil:
		c.writeError(writer, http.StatusInternalServerError, "setup_error", "Could not connect to remote node")
	case body["remote_current_user"] != c.options.Username || body["remote_current_password"] != c.options.Password:
		c.writeError(writer, http.StatusInternalServerError, "setup_error", "Remote node rejected credentials")
	case target.state == couchvalue.ClusterStateFinished:
		c.writeError(writer, http.StatusBadRequest, "bad_request", "Cluster is already finished")
	default:
		target.state = couchvalue.ClusterStateEnabled
		c.writeOK(writer)
	}
}

// addNode handles an 'add_node' action, merging the membership of the target into the coordinators cluster.
func (c *TestCluster) addNode(writer http.ResponseWriter, node, target *testNode, body map[string]any) {
	switch {
	case target == nil:
		c.writeError(writer, http.StatusInternalServerError, "add_node_error", "Could not connect to remote node")
		return
	case body["username"] != c.options.Username || body["password"] != c.options.Password:
		c.writeError(writer, http.StatusInternalServerError, "setup_error", "Remote node rejected credentials")
		return
	case node.group.contains(target):
		c.writeError(writer, http.StatusConflict, "conflict", "Document update conflict.")
		return
	case target.state != couchvalue.ClusterStateEnabled:
		c.writeError(writer, http.StatusInternalServerError, "add_node_error", "Remote node is not cluster enabled")
		return
	}

	for _, member := range target.group.members {
		node.group.members = append(node.group.members, member)
		member.group = node.group
	}

	c.writeOK(writer)
}

// finish handles a 'finish_cluster' action, every member of the coordinators cluster becomes finished.
func (c *TestCluster) finish(writer http.ResponseWriter, node *testNode) {
	switch node.state {
	case couchvalue.ClusterStateFinished:
		c.writeError(writer, http.StatusBadRequest, "bad_request", "Cluster is already finished")
		return
	case couchvalue.ClusterStateNotEnabled:
		c.writeError(writer, http.StatusBadRequest, "bad_request", "Cluster is not enabled")
		return
	}

	for _, member := range node.group.members {
		member.state = couchvalue.ClusterStateFinished
	}

	c.writeOK(writer)
}

func (c *TestCluster) writeOK(writer http.ResponseWriter) {
	c.writeJSON(writer, http.StatusCreated, map[string]any{"ok": true})
}

func (c *TestCluster) writeError(writer http.ResponseWriter, status int, name, reason string) {
	WriteTestError(c.t, writer, status, name, reason)
}

func (c *TestCluster) writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	testutil.EncodeJSON(c.t, writer, value)
}

// membership returns the membership as reported by this node.
func (n *testNode) membership() couchvalue.Membership {
	return couchvalue.Membership{AllNodes: n.group.names(), ClusterNodes: n.group.names()}
}

// WriteTestError writes a CouchDB style error response.
func WriteTestError(t *testing.T, writer http.ResponseWriter, status int, name, reason string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	testutil.EncodeJSON(t, writer, map[string]string{"error": name, "reason": reason})
}

// NewTestActionRejection returns an action handler which rejects the given action when it references the given target
// node (-1 matches any target) with the provided status/reason.
func NewTestActionRejection(t *testing.T, action string, target, status int, reason string) TestActionHandler {
	return func(writer http.ResponseWriter, request *TestActionRequest) bool {
		if request.Action != action || (target >= 0 && request.Target != target) {
			return false
		}

		WriteTestError(t, writer, status, "error", reason)

		return true
	}
}
