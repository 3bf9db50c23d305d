package clustersetup

import (
	"errors"
	"time"

	"github.com/couchbase/couchdb-cluster-setup/aprov"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

const (
	// DefaultVerifyInterval is the time waited between verification attempts when nodes are still settling.
	DefaultVerifyInterval = 2 * time.Second

	// MaxConcurrency caps the number of nodes which are contacted at once during the per-node phases.
	MaxConcurrency = 64
)

// Config is the explicit, immutable input to a formation run.
type Config struct {
	// Topology is the ordered set of nodes, the first is the coordinator.
	Topology *topology.Topology

	// Credentials are the admin credentials shared by every node.
	Credentials *aprov.Static

	// BindAddress is the address nodes are told to listen on, defaults to '0.0.0.0'.
	BindAddress string

	// Concurrency is the number of nodes contacted at once during pre-flight, enable and verify. Defaults to one, in
	// which case nodes are contacted in topology order.
	Concurrency int

	// VerifyAttempts is the number of times verification is attempted whilst nodes report that they're still
	// transitioning to 'cluster_finished'. Defaults to one, no polling.
	VerifyAttempts int

	// VerifyInterval is the time waited between verification attempts.
	VerifyInterval time.Duration
}

// validate returns a 'ConfigError' if the config can't be used to form a cluster and fills in any defaults.
func (c *Config) validate() error {
	if c.Topology == nil || c.Topology.Len() == 0 {
		return NewConfigError("topology", topology.ErrEmptyTopology)
	}

	if c.Credentials == nil || !c.Credentials.Valid() {
		return NewConfigError("credentials", errors.New("a non-empty admin username and password are required"))
	}

	if c.Concurrency < 0 {
		return NewConfigError("concurrency", errors.New("must not be negative"))
	}

	if c.VerifyAttempts < 0 {
		return NewConfigError("verify attempts", errors.New("must not be negative"))
	}

	c.Concurrency = min(max(1, c.Concurrency), MaxConcurrency)
	c.VerifyAttempts = max(1, c.VerifyAttempts)

	if c.VerifyInterval <= 0 {
		c.VerifyInterval = DefaultVerifyInterval
	}

	return nil
}
