package topology

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	type test struct {
		name          string
		input         string
		tls           bool
		expected      []Node
		expectedError error
	}

	tests := []*test{
		{
			name:          "EmptyInput",
			expectedError: ErrEmptyTopology,
		},
		{
			name:          "OnlyScheme",
			input:         "http://",
			expectedError: ErrEmptyTopology,
		},
		{
			name:          "BadScheme",
			input:         "couchbase://a",
			expectedError: ErrBadScheme,
		},
		{
			name:          "EmptyHost",
			input:         "a,,b",
			expectedError: ErrEmptyHost,
		},
		{
			name:          "EmptyHostWithPort",
			input:         ":5984",
			expectedError: ErrEmptyHost,
		},
		{
			name:          "NonNumericPort",
			input:         "a:http",
			expectedError: ErrBadPort,
		},
		{
			name:          "ZeroPort",
			input:         "a:0",
			expectedError: ErrBadPort,
		},
		{
			name:          "PortOutOfRange",
			input:         fmt.Sprintf("a:%d", math.MaxUint16+1),
			expectedError: ErrBadPort,
		},
		{
			name:          "BadInternalPort",
			input:         "a:5984:ia:-1",
			expectedError: ErrBadPort,
		},
		{
			name:          "TooManyFields",
			input:         "a:1:b:2:c",
			expectedError: ErrTooManyFields,
		},
		{
			name:          "UnbracketedIPV6",
			input:         "fe80::1",
			expectedError: ErrUnbracketedIPV6,
		},
		{
			name:          "UnclosedBracket",
			input:         "[::1:5984",
			expectedError: ErrUnmatchedBracket,
		},
		{
			name:          "TrailingGarbageAfterBracket",
			input:         "[::1]x:5984",
			expectedError: ErrUnmatchedBracket,
		},
		{
			name:          "Duplicate",
			input:         "a,b,a:5984",
			expectedError: ErrDuplicateNode,
		},
		{
			name:     "SingleHost",
			input:    "a",
			expected: []Node{{Host: "a", Port: 5984, InternalHost: "a", InternalPort: 5984}},
		},
		{
			name:  "ThreeNodes",
			input: "a:5984,b:5984,c:5984",
			expected: []Node{
				{Host: "a", Port: 5984, InternalHost: "a", InternalPort: 5984},
				{Host: "b", Port: 5984, InternalHost: "b", InternalPort: 5984},
				{Host: "c", Port: 5984, InternalHost: "c", InternalPort: 5984},
			},
		},
		{
			name:     "EmptyPortField",
			input:    "a::ia",
			expected: []Node{{Host: "a", Port: 5984, InternalHost: "ia", InternalPort: 5984}},
		},
		{
			name:     "AllFields",
			input:    "http://10.0.0.1:15984:couchdb-0.internal:5984",
			expected: []Node{{Host: "10.0.0.1", Port: 15984, InternalHost: "couchdb-0.internal", InternalPort: 5984}},
		},
		{
			name:     "InternalPortDefaultsToPort",
			input:    "a:6984:ia",
			expected: []Node{{Host: "a", Port: 6984, InternalHost: "ia", InternalPort: 6984}},
		},
		{
			name:     "HTTPS",
			input:    "https://a:6984, b:6984",
			tls:      true,
			expected: []Node{
				{Host: "a", Port: 6984, InternalHost: "a", InternalPort: 6984},
				{Host: "b", Port: 6984, InternalHost: "b", InternalPort: 6984},
			},
		},
		{
			name:     "BracketedIPV6",
			input:    "[::1]:5984:[fd00::2]",
			expected: []Node{{Host: "::1", Port: 5984, InternalHost: "fd00::2", InternalPort: 5984}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			parsed, err := Parse(test.input)
			if test.expectedError != nil {
				require.ErrorIs(t, err, test.expectedError)

				var parseErr *ParseError

				require.ErrorAs(t, err, &parseErr)

				return
			}

			require.NoError(t, err)
			require.Equal(t, test.tls, parsed.UseTLS)
			require.Equal(t, test.expected, parsed.Nodes())
		})
	}
}

func TestTopologyRoles(t *testing.T) {
	topology := MustParse("a:5984,b:5984,c:5984")

	require.Equal(t, 3, topology.Len())
	require.Equal(t, "a", topology.Coordinator().Host)
	require.Equal(t, []string{"b", "c"}, []string{topology.Peers()[0].Host, topology.Peers()[1].Host})
	require.Equal(t, "http://a:5984", topology.Coordinator().BaseURL(topology.UseTLS))
	require.Equal(t, "a:5984,b:5984,c:5984", topology.String())

	// Mutating the returned slices must not change the topology
	peers := topology.Peers()
	peers[0].Host = "z"
	require.Equal(t, "b", topology.Peers()[0].Host)
}

func TestNodeAddresses(t *testing.T) {
	node := Node{Host: "::1", Port: 5984}

	host, port := node.InternalAddress()
	require.Equal(t, "::1", host)
	require.Equal(t, uint16(5984), port)
	require.Equal(t, "[::1]:5984", node.Address())
	require.Equal(t, "[::1]:5984", node.String())

	node.InternalHost = "ia"
	require.Equal(t, "[::1]:5984 (internal ia:5984)", node.String())

	require.Equal(t, "http://[::1]:5984", node.BaseURL(false))
	require.Equal(t, "https://[::1]:5984", node.BaseURL(true))
}

func TestMustParsePanics(t *testing.T) {
	require.Panics(t, func() { MustParse("") })
}
