package netutil

import (
	"net/http"

	"golang.org/x/exp/slices"
)

// TemporaryFailureStatusCodes is a slice of temporary status codes which should be retried by default.
//
// NOTE: Only idempotent requests are ever retried, mutating control-plane calls must not be replayed.
var TemporaryFailureStatusCodes = []int{
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// IsTemporaryFailure returns a boolean indicating whether the provided status code represents a temporary error and
// should be retried.
func IsTemporaryFailure(status int) bool {
	return slices.Contains(TemporaryFailureStatusCodes, status)
}

