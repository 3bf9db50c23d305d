package couchrest

import (
	"errors"
	"fmt"

	"github.com/couchbase/couchdb-cluster-setup/netutil"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// NetworkError is returned when a node couldn't be reached or didn't give a usable answer, for example a dial failure,
// timeout, closed socket or a response which isn't JSON.
//
// NOTE: A node which answered with a well formed rejection is not a network error, see 'Outcome'.
type NetworkError struct {
	Node topology.Node
	Op   string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to %s on node '%s': %s", e.Op, e.Node.Address(), e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout returns a boolean indicating whether the request timed out.
func (e *NetworkError) Timeout() bool {
	return netutil.IsTimeout(e.Err)
}

// IsNetworkError returns a boolean indicating whether the given error is a 'NetworkError'.
func IsNetworkError(err error) bool {
	var networkErr *NetworkError
	return errors.As(err, &networkErr)
}

// MalformedResponseError is returned when a node responds with a body that can't be decoded.
type MalformedResponseError struct {
	Status int
	Body   []byte
	err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response with status code %d: %s", e.Status, e.err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.err
}
