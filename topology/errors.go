package topology

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTopology is returned when the topology string contains no node specifications.
	ErrEmptyTopology = errors.New("topology is empty, at least one node is required")

	// ErrEmptyHost is returned when a node specification has no host.
	ErrEmptyHost = errors.New("host must not be empty")

	// ErrBadPort is returned when a port isn't a number in the range 1-65535.
	ErrBadPort = errors.New("port must be a number in the range 1-65535")

	// ErrTooManyFields is returned when a node specification has more than four ':' separated fields.
	ErrTooManyFields = errors.New("expected at most 'host:port:internalHost:internalPort'")

	// ErrBadScheme is returned when the topology uses a scheme other than 'http' or 'https'.
	ErrBadScheme = errors.New("scheme must be either 'http' or 'https'")

	// ErrUnbracketedIPV6 is returned for IPv6 literals which aren't surrounded by brackets, ':' is the field delimiter.
	ErrUnbracketedIPV6 = errors.New("IPv6 addresses must be surrounded by brackets e.g. '[::1]:5984'")

	// ErrUnmatchedBracket is returned when an opening bracket isn't closed or vice versa.
	ErrUnmatchedBracket = errors.New("unmatched bracket in host")

	// ErrDuplicateNode is returned when the same admin address is listed more than once.
	ErrDuplicateNode = errors.New("node listed more than once")
)

// ParseError is returned when a topology string can't be parsed, it wraps one of the sentinel errors above.
type ParseError struct {
	// Spec is the offending node specification, or the whole topology string.
	Spec string
	err  error
}

func (e *ParseError) Error() string {
	if e.Spec == "" {
		return fmt.Sprintf("invalid topology: %s", e.err)
	}

	return fmt.Sprintf("invalid node specification '%s': %s", e.Spec, e.err)
}

func (e *ParseError) Unwrap() error {
	return e.err
}
