package netutil

import "strconv"

const (
	// SchemeHTTP is the scheme used to communicate with plain text admin ports.
	SchemeHTTP = "http"

	// SchemeHTTPS is the scheme used to communicate with TLS enabled admin ports.
	SchemeHTTPS = "https"
)

// BaseURL returns the base URL used to send requests to the given host/port.
func BaseURL(tls bool, host string, port uint16) string {
	scheme := SchemeHTTP
	if tls {
		scheme = SchemeHTTPS
	}

	return scheme + "://" + HostPort(host, port)
}

func itoa(port uint16) string {
	return strconv.FormatUint(uint64(port), 10)
}
