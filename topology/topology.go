// Package topology models the ordered list of nodes which are formed into a cluster.
package topology

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/couchbase/couchdb-cluster-setup/netutil"
)

// DefaultPort is the CouchDB clustered admin port, used when a port is omitted.
const DefaultPort = 5984

// Node is a single database instance taking part in cluster formation.
//
// The external address (Host/Port) is used to send admin requests to the node, the internal address is what other
// cluster members use to reach it; when omitted it's the same as the external address.
type Node struct {
	Host         string
	Port         uint16
	InternalHost string
	InternalPort uint16
}

// Address returns the external 'host:port' of the node, IPv6 hosts are bracketed.
func (n Node) Address() string {
	return netutil.HostPort(n.Host, n.Port)
}

// InternalAddress returns the host/port other cluster members should use to reach this node.
func (n Node) InternalAddress() (string, uint16) {
	host, port := n.InternalHost, n.InternalPort

	if host == "" {
		host = n.Host
	}

	if port == 0 {
		port = n.Port
	}

	return host, port
}

// BaseURL returns the URL admin requests for the node are sent to.
func (n Node) BaseURL(useTLS bool) string {
	return netutil.BaseURL(useTLS, n.Host, n.Port)
}

func (n Node) String() string {
	host, port := n.InternalAddress()
	if host == n.Host && port == n.Port {
		return n.Address()
	}

	return fmt.Sprintf("%s (internal %s)", n.Address(), netutil.HostPort(host, port))
}

// Topology is the ordered list of nodes to form into a cluster, the first node is the coordinator.
//
// NOTE: Topologies are immutable once parsed, the accessors below return copies.
type Topology struct {
	// UseTLS indicates the admin endpoints should be reached over 'https'.
	UseTLS bool

	nodes []Node
}

// New returns a topology for the given nodes, they must already be valid.
func New(useTLS bool, nodes ...Node) *Topology {
	return &Topology{UseTLS: useTLS, nodes: slices.Clone(nodes)}
}

// Nodes returns every node in topology order.
func (t *Topology) Nodes() []Node {
	return slices.Clone(t.nodes)
}

// Len returns the number of nodes in the topology.
func (t *Topology) Len() int {
	return len(t.nodes)
}

// Coordinator returns the node which drives formation.
func (t *Topology) Coordinator() Node {
	return t.nodes[0]
}

// Peers returns every node other than the coordinator, in topology order.
func (t *Topology) Peers() []Node {
	return slices.Clone(t.nodes[1:])
}

func (t *Topology) String() string {
	addresses := make([]string, 0, len(t.nodes))
	for _, node := range t.nodes {
		addresses = append(addresses, node.Address())
	}

	return strings.Join(addresses, ",")
}

// schemeMatcher matches an optional leading scheme e.g. 'https://'.
var schemeMatcher = regexp.MustCompile(`^(?P<scheme>[A-Za-z][A-Za-z0-9+.-]*)://`)

// Parse the given topology string of the form '[scheme://]host[:port[:internalHost[:internalPort]]][,...]'.
//
// Empty port fields use the default e.g. 'a::ia' is 'a' on port 5984 with the internal host 'ia'. IPv6 literals must be
// bracketed.
func Parse(raw string) (*Topology, error) {
	raw = strings.TrimSpace(raw)

	parsed := &Topology{}

	if match := schemeMatcher.FindStringSubmatch(raw); match != nil {
		switch strings.ToLower(match[schemeMatcher.SubexpIndex("scheme")]) {
		case netutil.SchemeHTTP:
		case netutil.SchemeHTTPS:
			parsed.UseTLS = true
		default:
			return nil, &ParseError{err: ErrBadScheme}
		}

		raw = raw[len(match[0]):]
	}

	if raw == "" {
		return nil, &ParseError{err: ErrEmptyTopology}
	}

	seen := make(map[string]struct{})

	for _, spec := range strings.Split(raw, ",") {
		spec = strings.TrimSpace(spec)

		node, err := parseNode(spec)
		if err != nil {
			return nil, &ParseError{Spec: spec, err: err}
		}

		if _, ok := seen[node.Address()]; ok {
			return nil, &ParseError{Spec: spec, err: ErrDuplicateNode}
		}

		seen[node.Address()] = struct{}{}

		parsed.nodes = append(parsed.nodes, node)
	}

	return parsed, nil
}

// MustParse is like 'Parse' but panics if the topology is invalid, intended for tests/constants.
func MustParse(raw string) *Topology {
	parsed, err := Parse(raw)
	if err != nil {
		panic(err)
	}

	return parsed
}

// parseNode parses a single 'host[:port[:internalHost[:internalPort]]]' specification.
func parseNode(spec string) (Node, error) {
	if ip := net.ParseIP(spec); ip != nil && strings.Contains(spec, ":") {
		return Node{}, ErrUnbracketedIPV6
	}

	fields, err := splitFields(spec)
	if err != nil {
		return Node{}, err
	}

	if len(fields) > 4 {
		return Node{}, ErrTooManyFields
	}

	// Pad so that omitted trailing fields are treated the same as empty ones
	for len(fields) < 4 {
		fields = append(fields, "")
	}

	node := Node{Host: netutil.StripIPV6Brackets(fields[0])}

	if node.Host == "" {
		return Node{}, ErrEmptyHost
	}

	if node.Port, err = parsePort(fields[1], DefaultPort); err != nil {
		return Node{}, err
	}

	node.InternalHost = netutil.StripIPV6Brackets(fields[2])
	if node.InternalHost == "" {
		node.InternalHost = node.Host
	}

	if node.InternalPort, err = parsePort(fields[3], node.Port); err != nil {
		return Node{}, err
	}

	return node, nil
}

// splitFields splits the specification on ':' whilst ignoring delimiters within brackets.
func splitFields(spec string) ([]string, error) {
	var (
		fields  []string
		start   int
		bracket bool
	)

	for i, r := range spec {
		switch r {
		case '[':
			if bracket || i != start {
				return nil, ErrUnmatchedBracket
			}

			bracket = true
		case ']':
			if !bracket {
				return nil, ErrUnmatchedBracket
			}

			bracket = false
		case ':':
			if bracket {
				continue
			}

			fields = append(fields, spec[start:i])
			start = i + 1
		}
	}

	if bracket {
		return nil, ErrUnmatchedBracket
	}

	fields = append(fields, spec[start:])

	// Brackets must surround the whole field e.g. '[::1]x' is invalid
	for _, field := range fields {
		if strings.ContainsAny(field, "[]") && (field[0] != '[' || field[len(field)-1] != ']') {
			return nil, ErrUnmatchedBracket
		}
	}

	return fields, nil
}

// parsePort parses the given port, returning the default if it's empty.
func parsePort(raw string, def uint16) (uint16, error) {
	if raw == "" {
		return def, nil
	}

	port, err := strconv.ParseUint(raw, 10, 16)
	if err != nil || port == 0 {
		return 0, ErrBadPort
	}

	return uint16(port), nil
}
