package envvar

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/couchbase/couchdb-cluster-setup/netutil"
)

// GetHTTPTimeouts returns the timeouts that should be used for a HTTP client from the environment or uses provided
// default values.
//
// NOTE: Fields which remain <nil> are defaulted by 'netutil.NewHTTPTransport'.
func GetHTTPTimeouts(envVar string, defaults netutil.HTTPTimeouts) (netutil.HTTPTimeouts, error) {
	timeouts, err := getHTTPTimeoutsFromEnv(envVar)
	if err != nil {
		return netutil.HTTPTimeouts{}, fmt.Errorf("failed to get timeouts from environment: %w", err)
	}

	setIfNil(&timeouts.Dialer, defaults.Dialer)
	setIfNil(&timeouts.KeepAlive, defaults.KeepAlive)
	setIfNil(&timeouts.TransportIdleConn, defaults.TransportIdleConn)
	setIfNil(&timeouts.TransportContinue, defaults.TransportContinue)
	setIfNil(&timeouts.TransportResponseHeader, defaults.TransportResponseHeader)
	setIfNil(&timeouts.TransportTLSHandshake, defaults.TransportTLSHandshake)

	return timeouts, nil
}

// getHTTPTimeoutsFromEnv returns the timeouts that should be used for a HTTP client from the environment.
func getHTTPTimeoutsFromEnv(envVar string) (netutil.HTTPTimeouts, error) {
	var timeouts netutil.HTTPTimeouts

	env, ok := os.LookupEnv(envVar)
	if !ok {
		return timeouts, nil
	}

	err := jsoniter.Unmarshal([]byte(env), &timeouts)

	return timeouts, err
}

func setIfNil[T any](dst **T, value *T) {
	if *dst == nil {
		*dst = value
	}
}
