package couchrest

import (
	"fmt"
	"net/http"

	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
)

// ClusterSetup is the response of 'GET /_cluster_setup'.
type ClusterSetup struct {
	State couchvalue.ClusterState `json:"state"`

	// Raw is the undecoded response body, kept for diagnostics.
	Raw []byte `json:"-"`
}

// Outcome is the answer given by a node to a formation action, successful or not.
//
// NOTE: A non-2xx status is returned as an 'Outcome' rather than an error, it's down to the caller to decide whether
// the answer is acceptable e.g. "Cluster is already enabled".
type Outcome struct {
	Status int    `json:"-"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Success returns a boolean indicating whether the node answered with the expected status, 'ok' and no reason.
func (o *Outcome) Success(expected int) bool {
	return o.Status == expected && o.OK && o.Reason == ""
}

// Accepted returns a boolean indicating whether the node answered with a 200/201 status and 'ok'.
func (o *Outcome) Accepted() bool {
	return (o.Status == http.StatusOK || o.Status == http.StatusCreated) && o.OK
}

// AlreadyEnabled returns a boolean indicating whether the node rejected 'enable_cluster' because cluster mode was
// already enabled.
func (o *Outcome) AlreadyEnabled() bool {
	return o.Status == http.StatusBadRequest && o.Reason == ReasonClusterAlreadyEnabled
}

func (o *Outcome) String() string {
	switch {
	case o.Error != "" && o.Reason != "":
		return fmt.Sprintf("%d %s: %s", o.Status, o.Error, o.Reason)
	case o.Reason != "":
		return fmt.Sprintf("%d: %s", o.Status, o.Reason)
	case o.Error != "":
		return fmt.Sprintf("%d: %s", o.Status, o.Error)
	}

	return fmt.Sprintf("%d ok=%t", o.Status, o.OK)
}

// enableClusterBody is the body of an 'enable_cluster' action, the remote fields are only set when the coordinator is
// asked to prepare another node.
type enableClusterBody struct {
	Action                string `json:"action"`
	BindAddress           string `json:"bind_address"`
	Username              string `json:"username"`
	Password              string `json:"password"`
	Port                  uint16 `json:"port,omitempty"`
	NodeCount             string `json:"node_count"`
	RemoteNode            string `json:"remote_node,omitempty"`
	RemoteCurrentUser     string `json:"remote_current_user,omitempty"`
	RemoteCurrentPassword string `json:"remote_current_password,omitempty"`
}

// addNodeBody is the body of an 'add_node' action.
type addNodeBody struct {
	Action   string `json:"action"`
	Host     string `json:"host"`
	Port     uint16 `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// finishClusterBody is the body of a 'finish_cluster' action.
type finishClusterBody struct {
	Action string `json:"action"`
}
