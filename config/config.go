// Package config resolves the inputs of a formation run from command line flags and the environment, flags take
// precedence over the environment.
package config

import (
	"errors"

	"github.com/dogmatiq/ferrite"

	"github.com/couchbase/couchdb-cluster-setup/aprov"
	"github.com/couchbase/couchdb-cluster-setup/clustersetup"
	"github.com/couchbase/couchdb-cluster-setup/couchrest"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

const (
	// NodesEnvVar is the topology string e.g. 'couchdb-0:5984,couchdb-1:5984'.
	NodesEnvVar = "COUCHDB_CLUSTER_NODES"

	// UsernameEnvVar is the admin username shared by every node.
	UsernameEnvVar = "COUCHDB_USER"

	// PasswordEnvVar is the admin password shared by every node.
	PasswordEnvVar = "COUCHDB_PASSWORD"
)

// Environment holds the inputs read from the environment, empty when unset.
type Environment struct {
	Nodes    string
	Username string
	Password string
}

// LoadEnvironment reads the inputs from the environment.
//
// NOTE: The variables are declared in a new registry on each call so that the current environment is always read.
func LoadEnvironment() Environment {
	registry := ferrite.NewRegistry(
		"couchdb-cluster-setup",
		"CouchDB cluster setup",
		ferrite.WithDocumentationURL("https://docs.couchdb.org/en/stable/setup/cluster.html"),
	)

	var (
		nodes = ferrite.
			String(NodesEnvVar, "comma separated nodes to form into a cluster, the first is the coordinator").
			Optional(ferrite.WithRegistry(registry))
		username = ferrite.
				String(UsernameEnvVar, "the admin username shared by every node").
				Optional(ferrite.WithRegistry(registry))
		password = ferrite.
				String(PasswordEnvVar, "the admin password shared by every node").
				WithSensitiveContent().
				Optional(ferrite.WithRegistry(registry))
	)

	var env Environment

	env.Nodes, _ = nodes.Value()
	env.Username, _ = username.Value()
	env.Password, _ = password.Value()

	return env
}

// Inputs are the formation inputs given on the command line, empty fields fall back to the environment.
type Inputs struct {
	Nodes    string
	Username string
	Password string
}

// Resolve merges the given inputs with the environment, returning the topology and credentials for the run. A
// 'clustersetup.ConfigError' is returned when either is missing or invalid.
func Resolve(inputs Inputs, env Environment) (*topology.Topology, *aprov.Static, error) {
	var (
		nodes    = first(inputs.Nodes, env.Nodes)
		username = first(inputs.Username, env.Username)
		password = first(inputs.Password, env.Password)
	)

	if nodes == "" {
		return nil, nil, clustersetup.NewConfigError("topology",
			errors.New("no nodes provided, use '--nodes' or '"+NodesEnvVar+"'"))
	}

	top, err := topology.Parse(nodes)
	if err != nil {
		return nil, nil, clustersetup.NewConfigError("topology", err)
	}

	credentials := &aprov.Static{Username: username, Password: password, UserAgent: couchrest.DefaultUserAgent}
	if !credentials.Valid() {
		return nil, nil, clustersetup.NewConfigError("credentials", errors.New("an admin username and password are "+
			"required, use '--username'/'--password' or '"+UsernameEnvVar+"'/'"+PasswordEnvVar+"'"))
	}

	return top, credentials, nil
}

func first(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
