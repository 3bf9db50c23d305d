// Package couchrest implements a client for the administrative endpoints of a CouchDB node which are used to form a
// cluster, along with an in-process fake cluster which may be used for testing.
package couchrest

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/couchbase/couchdb-cluster-setup/aprov"
	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
	"github.com/couchbase/couchdb-cluster-setup/envvar"
	"github.com/couchbase/couchdb-cluster-setup/httptools"
	"github.com/couchbase/couchdb-cluster-setup/log"
	"github.com/couchbase/couchdb-cluster-setup/netutil"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ClientOptions encapsulates the options for creating a new REST client.
type ClientOptions struct {
	// Credentials supplies the admin username/password, these are used both to authenticate and as the credentials
	// sent in the body of formation actions.
	Credentials aprov.Provider

	// UseTLS indicates requests should be sent using 'https'.
	UseTLS bool

	// TLSConfig is used for 'https' requests, may be <nil> to use the system defaults.
	TLSConfig *tls.Config

	// ReqResLogLevel is the level at which to log the dispatching and receiving of requests/responses.
	ReqResLogLevel log.Level

	// Logger receives all the logging output of the client, may be <nil>.
	Logger log.Logger
}

// Client is a REST client used to query and drive the cluster setup endpoints of individual CouchDB nodes.
type Client struct {
	client      *httptools.Client
	credentials aprov.Provider
	useTLS      bool
	logger      log.WrappedLogger
}

// NewClient creates a new REST client, tuning knobs are read from the environment.
func NewClient(options ClientOptions) (*Client, error) {
	if options.Credentials == nil {
		return nil, errors.New("credentials provider is required")
	}

	logger := log.NewWrappedLogger(options.Logger)

	clientTimeout, ok := envvar.GetDuration(ClientTimeoutEnvVar)
	if !ok {
		clientTimeout = DefaultClientTimeout
	} else {
		logger.Infof("(REST) Set HTTP client timeout to: %s", clientTimeout)
	}

	requestRetries, ok := envvar.GetInt(RequestRetriesEnvVar)
	if !ok || requestRetries <= 0 {
		requestRetries = httptools.DefaultRequestRetries
	} else {
		logger.Infof("(REST) Set number of attempts for idempotent requests to: %d", requestRetries)
	}

	var limiter *rate.Limiter

	if rps, ok := envvar.GetInt(MaxRPSEnvVar); ok && rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), rps)
		logger.Infof("(REST) Limiting requests to %d per second", rps)
	}

	if verbose, ok := envvar.GetBool(LogRequestsEnvVar); ok && verbose {
		options.ReqResLogLevel = log.LevelInfo
	}

	timeouts, err := envvar.GetHTTPTimeouts(TimeoutsEnvVar, netutil.HTTPTimeouts{})
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP timeouts from '%s': %w", TimeoutsEnvVar, err)
	}

	client := httptools.NewClient(
		httptools.NewHTTPClient(clientTimeout, netutil.NewHTTPTransport(options.TLSConfig, timeouts)),
		options.Credentials,
		options.Logger,
		httptools.ClientOptions{
			RequestRetries: requestRetries,
			ReqResLogLevel: options.ReqResLogLevel,
			Limiter:        limiter,
		},
	)

	return &Client{
		client:      client,
		credentials: options.Credentials,
		useTLS:      options.UseTLS,
		logger:      logger,
	}, nil
}

// GetServerInfo returns the welcome message of the given node, which includes its version.
func (c *Client) GetServerInfo(ctx context.Context, node topology.Node) (*couchvalue.ServerInfo, error) {
	var info couchvalue.ServerInfo

	_, err := c.get(ctx, node, "get server info", EndpointRoot, &info)
	if err != nil {
		return nil, err
	}

	return &info, nil
}

// QueryClusterSetup returns the current cluster setup state of the given node.
func (c *Client) QueryClusterSetup(ctx context.Context, node topology.Node) (*ClusterSetup, error) {
	var setup ClusterSetup

	body, err := c.get(ctx, node, "query cluster setup state", EndpointClusterSetup, &setup)
	if err != nil {
		return nil, err
	}

	setup.Raw = body

	return &setup, nil
}

// QueryMembership returns the nodes known to, and clustered with, the given node.
func (c *Client) QueryMembership(ctx context.Context, node topology.Node) (*couchvalue.Membership, error) {
	var membership couchvalue.Membership

	_, err := c.get(ctx, node, "query membership", EndpointMembership, &membership)
	if err != nil {
		return nil, err
	}

	return &membership, nil
}

// EnableCluster puts the given node into cluster enabled mode, expecting a cluster of 'nodeCount' nodes. An empty bind
// address defaults to '0.0.0.0'.
func (c *Client) EnableCluster(
	ctx context.Context,
	node topology.Node,
	nodeCount int,
	bindAddress string,
) (*Outcome, error) {
	if bindAddress == "" {
		bindAddress = DefaultBindAddress
	}

	username, password := c.credentials.GetCredentials(node.Address())

	return c.post(ctx, node, "enable cluster", enableClusterBody{
		Action:      ActionEnableCluster,
		BindAddress: bindAddress,
		Username:    username,
		Password:    password,
		NodeCount:   strconv.Itoa(nodeCount),
	})
}

// EnableClusterForRemote asks the coordinator to put the remote node into cluster enabled mode, the remote node is
// addressed using its internal address.
func (c *Client) EnableClusterForRemote(
	ctx context.Context,
	coordinator, remote topology.Node,
	nodeCount int,
) (*Outcome, error) {
	var (
		host, port         = remote.InternalAddress()
		username, password = c.credentials.GetCredentials(remote.Address())
	)

	return c.post(ctx, coordinator, "enable cluster for remote node", enableClusterBody{
		Action:                ActionEnableCluster,
		BindAddress:           DefaultBindAddress,
		Username:              username,
		Password:              password,
		Port:                  port,
		NodeCount:             strconv.Itoa(nodeCount),
		RemoteNode:            host,
		RemoteCurrentUser:     username,
		RemoteCurrentPassword: password,
	})
}

// AddNode asks the coordinator to add the remote node, addressed using its internal address, to its cluster.
func (c *Client) AddNode(ctx context.Context, coordinator, remote topology.Node) (*Outcome, error) {
	var (
		host, port         = remote.InternalAddress()
		username, password = c.credentials.GetCredentials(remote.Address())
	)

	return c.post(ctx, coordinator, "add node", addNodeBody{
		Action:   ActionAddNode,
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
	})
}

// FinishCluster asks the coordinator to finalize the cluster.
func (c *Client) FinishCluster(ctx context.Context, coordinator topology.Node) (*Outcome, error) {
	return c.post(ctx, coordinator, "finish cluster", finishClusterBody{Action: ActionFinishCluster})
}

// get sends an idempotent (retried) GET request to the node, decoding the response into the given value.
//
// NOTE: Any status other than 200 means we didn't get a usable reading and is returned as a 'NetworkError'.
func (c *Client) get(
	ctx context.Context,
	node topology.Node,
	op string,
	endpoint httptools.Endpoint,
	value any,
) ([]byte, error) {
	request := &httptools.Request{
		Host:               node.BaseURL(c.useTLS),
		Endpoint:           endpoint,
		Method:             http.MethodGet,
		ExpectedStatusCode: http.StatusOK,
	}

	response, err := c.client.Execute(ctx, request)
	if err != nil {
		return nil, &NetworkError{Node: node, Op: op, Err: err}
	}

	err = decode(response, value)
	if err != nil {
		return nil, &NetworkError{Node: node, Op: op, Err: err}
	}

	return response.Body, nil
}

// post sends a formation action to the node; these are never retried since the node may have applied the action even
// if we didn't receive a response.
func (c *Client) post(ctx context.Context, node topology.Node, op string, body any) (*Outcome, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	request := &httptools.Request{
		Host:               node.BaseURL(c.useTLS),
		Endpoint:           EndpointClusterSetup,
		Method:             http.MethodPost,
		Body:               encoded,
		ExpectedStatusCode: http.StatusCreated,
	}

	response, err := c.client.Execute(ctx, request)
	if err != nil && !httptools.IsStatusError(err) {
		return nil, &NetworkError{Node: node, Op: op, Err: err}
	}

	outcome := &Outcome{Status: response.StatusCode}

	err = decode(response, outcome)
	if err != nil {
		return nil, &NetworkError{Node: node, Op: op, Err: err}
	}

	c.logger.Debugf("(REST) Node '%s' answered '%s' with: %s", log.UserDataValue(node.Address()), op, outcome)

	return outcome, nil
}

// decode the JSON body of the given response into the provided value.
func decode(response *httptools.Response, value any) error {
	if len(bytes.TrimSpace(response.Body)) == 0 {
		return &MalformedResponseError{Status: response.StatusCode, err: errors.New("empty response body")}
	}

	err := json.Unmarshal(response.Body, value)
	if err != nil {
		return &MalformedResponseError{Status: response.StatusCode, Body: response.Body, err: err}
	}

	return nil
}
