package httptools

import (
	"crypto/x509"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/couchbase/couchdb-cluster-setup/netutil"
)

func TestShouldRetry(t *testing.T) {
	type test struct {
		name     string
		err      error
		expected bool
	}

	tests := []*test{
		{
			name:     "ParanoidNil",
			expected: false,
		},
		{
			name:     "SocketClosedInFlight",
			err:      &SocketClosedInFlightError{},
			expected: true,
		},
		{
			name:     "UnknownAuthority",
			err:      &x509.UnknownAuthorityError{},
			expected: true,
		},
		{
			name:     "WrappedError",
			err:      fmt.Errorf("%w", &x509.UnknownAuthorityError{}),
			expected: true,
		},
	}

	for _, msg := range netutil.TemporaryErrorMessages {
		tests = append(tests, &test{
			name:     "msg",
			err:      fmt.Errorf("asdf%sasdf", msg),
			expected: true,
		})
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, ShouldRetry(test.err))
		})
	}
}

func TestHandleResponseError(t *testing.T) {
	var (
		authz      *AuthorizationError
		authn      *AuthenticationError
		internal   *InternalServerError
		notFound   *EndpointNotFoundError
		unexpected *UnexpectedStatusCodeError
	)

	err := HandleResponseError(http.MethodGet, "/_membership", http.StatusForbidden,
		[]byte(`{"permissions":["admin"]}`))
	require.ErrorAs(t, err, &authz)
	require.Equal(t, []string{"admin"}, authz.permissions)

	require.ErrorAs(t, HandleResponseError(http.MethodGet, "/", http.StatusUnauthorized, nil), &authn)
	require.ErrorAs(t, HandleResponseError(http.MethodGet, "/", http.StatusInternalServerError, nil), &internal)
	require.ErrorAs(t, HandleResponseError(http.MethodGet, "/", http.StatusNotFound, nil), &notFound)

	err = HandleResponseError(http.MethodPost, "/_cluster_setup", http.StatusConflict, []byte(`{"error":"conflict"}`))
	require.ErrorAs(t, err, &unexpected)
	require.Equal(t, http.StatusConflict, unexpected.Status)
	require.Contains(t, err.Error(), "conflict")
}

func TestWaitForRetryDuration(t *testing.T) {
	require.Equal(t, 5*time.Second, waitForRetryDuration("5"))
	require.Zero(t, waitForRetryDuration("garbage"))
	require.Greater(t, waitForRetryDuration(time.Now().UTC().Add(time.Hour).Format(time.RFC1123)), 59*time.Minute)
}
