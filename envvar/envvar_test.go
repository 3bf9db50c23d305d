package envvar

import (
	"testing"
	"time"

	"github.com/couchbase/couchdb-cluster-setup/netutil"

	"github.com/stretchr/testify/require"
)

func TestGetInt(t *testing.T) {
	t.Setenv("COUCHDB_SETUP_TEST_INT", "10")
	t.Setenv("COUCHDB_SETUP_TEST_NOT_INT", "ten")

	val, ok := GetInt("COUCHDB_SETUP_TEST_INT")
	require.True(t, ok)
	require.Equal(t, 10, val)

	_, ok = GetInt("COUCHDB_SETUP_TEST_NOT_INT")
	require.False(t, ok)

	_, ok = GetInt("COUCHDB_SETUP_TEST_UNSET")
	require.False(t, ok)
}

func TestGetBool(t *testing.T) {
	t.Setenv("COUCHDB_SETUP_TEST_BOOL", "true")

	val, ok := GetBool("COUCHDB_SETUP_TEST_BOOL")
	require.True(t, ok)
	require.True(t, val)

	_, ok = GetBool("COUCHDB_SETUP_TEST_UNSET")
	require.False(t, ok)
}

func TestGetDuration(t *testing.T) {
	type test struct {
		name     string
		value    string
		expected time.Duration
		ok       bool
	}

	tests := []test{
		{name: "Duration", value: "1m30s", expected: 90 * time.Second, ok: true},
		{name: "Seconds", value: "15", expected: 15 * time.Second, ok: true},
		{name: "Invalid", value: "soon"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv("COUCHDB_SETUP_TEST_DURATION", test.value)

			val, ok := GetDuration("COUCHDB_SETUP_TEST_DURATION")
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.expected, val)
		})
	}
}

func TestGetHTTPTimeouts(t *testing.T) {
	var (
		dialer    = time.Second
		keepAlive = time.Minute
	)

	t.Setenv("COUCHDB_SETUP_TEST_TIMEOUTS", `{"dialer":"5s"}`)

	timeouts, err := GetHTTPTimeouts("COUCHDB_SETUP_TEST_TIMEOUTS", netutil.HTTPTimeouts{
		Dialer:    &dialer,
		KeepAlive: &keepAlive,
	})
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, *timeouts.Dialer)
	require.Equal(t, time.Minute, *timeouts.KeepAlive)
	require.Nil(t, timeouts.TransportTLSHandshake)
}

func TestGetHTTPTimeoutsInvalid(t *testing.T) {
	t.Setenv("COUCHDB_SETUP_TEST_TIMEOUTS", `{"dialer":`)

	_, err := GetHTTPTimeouts("COUCHDB_SETUP_TEST_TIMEOUTS", netutil.HTTPTimeouts{})
	require.Error(t, err)
}
