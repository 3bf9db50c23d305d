package clustersetup

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/couchbase/couchdb-cluster-setup/couchrest"
	"github.com/couchbase/couchdb-cluster-setup/couchvalue"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// ConfigError is returned when the topology or credentials are missing/invalid, it's always returned before any
// request is sent to a node.
type ConfigError struct {
	Field string
	err   error
}

// NewConfigError returns a configuration error for the given field.
func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, err: err}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.err)
}

func (e *ConfigError) Unwrap() error {
	return e.err
}

// IsConfigError returns a boolean indicating whether the given error is a 'ConfigError'.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// NetworkError is returned when a node is unreachable, times out or gives a response which can't be decoded.
type NetworkError = couchrest.NetworkError

// IsNetworkError returns a boolean indicating whether the given error is a 'NetworkError'.
func IsNetworkError(err error) bool {
	return couchrest.IsNetworkError(err)
}

// ProtocolRejectionError is implemented by the errors returned when a node answers a formation action with anything
// other than the expected success.
type ProtocolRejectionError interface {
	error

	// StatusCode is the HTTP status code the node answered with.
	StatusCode() int

	// RemoteReason is the reason given by the node, may be empty.
	RemoteReason() string
}

// IsProtocolRejection returns a boolean indicating whether the given error is a 'ProtocolRejectionError'.
func IsProtocolRejection(err error) bool {
	var rejection ProtocolRejectionError
	return errors.As(err, &rejection)
}

// EnableClusterError is returned when a node refuses to enable cluster mode.
type EnableClusterError struct {
	Node   topology.Node
	Status int
	Reason string
}

func (e *EnableClusterError) Error() string {
	return fmt.Sprintf("node '%s' rejected enable_cluster with status code %d: %s", e.Node, e.Status,
		reasonOrNone(e.Reason))
}

func (e *EnableClusterError) StatusCode() int {
	return e.Status
}

func (e *EnableClusterError) RemoteReason() string {
	return e.Reason
}

// Phases of adding a peer in which an 'AddNodeError' may occur.
const (
	AddNodePhaseEnableRemote = "enable_remote"
	AddNodePhaseAddNode      = "add_node"
)

// AddNodeError is returned when the coordinator fails to prepare, or add, a peer.
type AddNodeError struct {
	Peer   topology.Node
	Phase  string
	Status int
	Reason string
}

func (e *AddNodeError) Error() string {
	msg := fmt.Sprintf("coordinator rejected %s for peer '%s' with status code %d: %s", e.Phase, e.Peer, e.Status,
		reasonOrNone(e.Reason))

	if e.Conflict() {
		msg += " (the peer may already be a member of the cluster)"
	}

	return msg
}

func (e *AddNodeError) StatusCode() int {
	return e.Status
}

func (e *AddNodeError) RemoteReason() string {
	return e.Reason
}

// Conflict returns a boolean indicating whether the coordinator answered with a conflict, which is the case when the
// peer is already a member.
func (e *AddNodeError) Conflict() bool {
	return e.Status == http.StatusConflict
}

// FinishClusterError is returned when the coordinator refuses to finalize the cluster.
type FinishClusterError struct {
	Status int
	Reason string
}

func (e *FinishClusterError) Error() string {
	return fmt.Sprintf("coordinator rejected finish_cluster with status code %d: %s", e.Status, reasonOrNone(e.Reason))
}

func (e *FinishClusterError) StatusCode() int {
	return e.Status
}

func (e *FinishClusterError) RemoteReason() string {
	return e.Reason
}

var (
	_ ProtocolRejectionError = (*EnableClusterError)(nil)
	_ ProtocolRejectionError = (*AddNodeError)(nil)
	_ ProtocolRejectionError = (*FinishClusterError)(nil)
)

// AlreadyClusteredError is returned by pre-flight when a node has already been enabled or finished, nothing has been
// changed when this error is returned.
type AlreadyClusteredError struct {
	Node  topology.Node
	State couchvalue.ClusterState
}

func (e *AlreadyClusteredError) Error() string {
	return fmt.Sprintf("node '%s' is already in state '%s', refusing to form a cluster", e.Node, e.State)
}

// IsAlreadyClustered returns a boolean indicating whether the given error is an 'AlreadyClusteredError'.
func IsAlreadyClustered(err error) bool {
	var alreadyClustered *AlreadyClusteredError
	return errors.As(err, &alreadyClustered)
}

// StateMismatchError is returned when a node reports a state other than the one required at that point.
type StateMismatchError struct {
	Node     topology.Node
	Expected couchvalue.ClusterState
	Actual   couchvalue.ClusterState
}

func (e *StateMismatchError) Error() string {
	return fmt.Sprintf("expected node '%s' to be in state '%s' but it's in state '%s'", e.Node, e.Expected, e.Actual)
}

// Kinds of 'VerificationError'.
const (
	VerificationKindState           = "state"
	VerificationKindMembershipCount = "membership_count"
)

// VerificationError is returned when the final state of the cluster doesn't match the topology.
type VerificationError struct {
	Kind     string
	Node     topology.Node
	Expected string
	Actual   string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification of %s failed on node '%s': expected %s, got %s", e.Kind, e.Node, e.Expected,
		e.Actual)
}

// IsVerificationError returns a boolean indicating whether the given error is a 'VerificationError'.
func IsVerificationError(err error) bool {
	var verificationErr *VerificationError
	return errors.As(err, &verificationErr)
}

// UnsupportedVersionError is returned by pre-flight when a node runs a version which doesn't support cluster setup.
type UnsupportedVersionError struct {
	Node    topology.Node
	Version couchvalue.Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("node '%s' is running version '%s' which is older than the minimum supported version '%s'",
		e.Node, e.Version, couchvalue.MinimumSupportedVersion)
}

func reasonOrNone(reason string) string {
	if reason == "" {
		return "<none>"
	}

	return reason
}
