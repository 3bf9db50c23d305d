package netutil

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// HTTPTimeouts encapsulates the timeouts for a HTTP client into an object which can be parsed as an environment
// variable.
type HTTPTimeouts struct {
	Dialer                  *time.Duration
	KeepAlive               *time.Duration
	TransportIdleConn       *time.Duration
	TransportContinue       *time.Duration
	TransportResponseHeader *time.Duration
	TransportTLSHandshake   *time.Duration
}

func (ct *HTTPTimeouts) UnmarshalJSON(data []byte) error {
	type overlay struct {
		Dialer                  string `json:"dialer,omitempty"`
		KeepAlive               string `json:"keep_alive,omitempty"`
		TransportIdleConn       string `json:"transport_idle_conn,omitempty"`
		TransportContinue       string `json:"transport_continue,omitempty"`
		TransportResponseHeader string `json:"transport_response_header,omitempty"`
		TransportTLSHandshake   string `json:"transport_tls_handshake,omitempty"`
	}

	var decoded overlay

	err := jsoniter.Unmarshal(data, &decoded)
	if err != nil {
		return err
	}

	fields := []struct {
		raw string
		dst **time.Duration
	}{
		{raw: decoded.Dialer, dst: &ct.Dialer},
		{raw: decoded.KeepAlive, dst: &ct.KeepAlive},
		{raw: decoded.TransportIdleConn, dst: &ct.TransportIdleConn},
		{raw: decoded.TransportContinue, dst: &ct.TransportContinue},
		{raw: decoded.TransportResponseHeader, dst: &ct.TransportResponseHeader},
		{raw: decoded.TransportTLSHandshake, dst: &ct.TransportTLSHandshake},
	}

	for _, field := range fields {
		if field.raw == "" {
			continue
		}

		parsed, err := time.ParseDuration(field.raw)
		if err != nil {
			return err
		}

		*field.dst = &parsed
	}

	return nil
}

// NewHTTPTransport returns a new HTTP transport using the given TLS config and timeouts, any <nil> timeouts are
// replaced with the defaults.
func NewHTTPTransport(tlsConfig *tls.Config, timeouts HTTPTimeouts) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   timeoutOrDefault(timeouts.Dialer, defaultDialerTimeout),
		KeepAlive: timeoutOrDefault(timeouts.KeepAlive, defaultDialerKeepAlive),
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		TLSClientConfig:       tlsConfig,
		DialContext:           dialer.DialContext,
		IdleConnTimeout:       timeoutOrDefault(timeouts.TransportIdleConn, defaultIdleConnTimeout),
		ExpectContinueTimeout: timeoutOrDefault(timeouts.TransportContinue, defaultContinueTimeout),
		ResponseHeaderTimeout: timeoutOrDefault(timeouts.TransportResponseHeader, defaultResponseHeaderTimeout),
		TLSHandshakeTimeout:   timeoutOrDefault(timeouts.TransportTLSHandshake, defaultTLSHandshakeTimeout),
	}
}

// timeoutOrDefault returns the given timeout if it's not nil, otherwise it returns the given default value.
func timeoutOrDefault(timeout *time.Duration, defaultTimeout time.Duration) time.Duration {
	if timeout != nil {
		return *timeout
	}

	return defaultTimeout
}
