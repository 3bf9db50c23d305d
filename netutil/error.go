package netutil

import (
	"context"
	"errors"
	"net"
	"strings"
)

// TemporaryErrorMessages is a slice of known error messages which may be returned by the Go standard library when
// attempting to perform network operations.
var TemporaryErrorMessages = []string{
	"broken pipe",                      // src/syscall/zerrors_linux_amd64.go
	"connection refused",               // src/syscall/zerrors_linux_amd64.go
	"connection reset",                 // src/syscall/zerrors_linux_amd64.go
	"connection timed out",             // src/syscall/zerrors_linux_amd64.go
	"i/o timeout",                      // src/net/net.go
	"net/http: TLS handshake timeout",  // src/net/http/transport.go
	"server closed idle connection",    // src/net/http/transport.go
	"transport connection broken",      // src/net/http/transport.go
	"use of closed network connection", // src/internal/poll/fd.go
}

// IsTemporaryError returns a boolean indicating whether the provided error is a result of a temporary failure and
// should be retried.
//
// NOTE: Cancellation of the callers context is never temporary.
func IsTemporaryError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var (
		dnsErr  *net.DNSError
		opError *net.OpError
	)

	if errors.As(err, &dnsErr) || (errors.As(err, &opError) && opError.Op == "dial") {
		return true
	}

	for _, msg := range TemporaryErrorMessages {
		if strings.Contains(err.Error(), msg) {
			return true
		}
	}

	return false
}

// IsTimeout returns a boolean indicating whether the given error was caused by a network/request timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
