package couchrest

import "time"

const (
	// DefaultClientTimeout is the timeout for client connection/single operations i.e. this doesn't include retries.
	DefaultClientTimeout = time.Minute

	// DefaultBindAddress is the address nodes are told to listen on when cluster mode is enabled.
	DefaultBindAddress = "0.0.0.0"

	// DefaultUserAgent is sent with every request unless the credentials provider overrides it.
	DefaultUserAgent = "couchdb-cluster-setup"

	// ClientTimeoutEnvVar overrides the per request HTTP client timeout e.g. '90s'; a plain integer is seconds.
	ClientTimeoutEnvVar = "COUCHDB_SETUP_CLIENT_TIMEOUT"

	// RequestRetriesEnvVar overrides the number of attempts made for idempotent requests.
	RequestRetriesEnvVar = "COUCHDB_SETUP_REQUEST_RETRIES"

	// MaxRPSEnvVar limits the number of requests per second sent across all nodes, unlimited when unset.
	MaxRPSEnvVar = "COUCHDB_SETUP_MAX_RPS"

	// LogRequestsEnvVar, when true, logs every request/response at info level rather than trace.
	LogRequestsEnvVar = "COUCHDB_SETUP_LOG_REQUESTS"

	// TimeoutsEnvVar is the environment variable that should be used to supply configurable timeouts for the HTTP
	// transport as JSON e.g. '{"dialer":"5s"}'. If it is not provided then the default values are used.
	TimeoutsEnvVar = "COUCHDB_SETUP_HTTP_TIMEOUTS"
)

// Actions accepted by 'POST /_cluster_setup'.
const (
	ActionEnableCluster = "enable_cluster"
	ActionAddNode       = "add_node"
	ActionFinishCluster = "finish_cluster"
)

// ReasonClusterAlreadyEnabled is the reason given by a node asked to enable cluster mode a second time.
const ReasonClusterAlreadyEnabled = "Cluster is already enabled"
