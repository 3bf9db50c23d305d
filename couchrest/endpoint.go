package couchrest

import "github.com/couchbase/couchdb-cluster-setup/httptools"

const (
	// EndpointRoot returns the server welcome message, used to check the version of a node.
	EndpointRoot httptools.Endpoint = "/"

	// EndpointClusterSetup is used to query the setup state of a node (GET) and to drive formation actions (POST).
	EndpointClusterSetup httptools.Endpoint = "/_cluster_setup"

	// EndpointMembership lists the nodes known to a node and those which are members of its cluster.
	EndpointMembership httptools.Endpoint = "/_membership"
)
