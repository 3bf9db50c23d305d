package netutil

import "net"

// StripIPV6Brackets removes the brackets surrounding an IPV6 literal, returning the raw address.
func StripIPV6Brackets(host string) string {
	if len(host) > 2 && host[0] == '[' && host[len(host)-1] == ']' {
		return host[1 : len(host)-1]
	}

	return host
}

// HostPort joins the host and port into an address suitable for use in a URL, IPV6 addresses are bracketed.
func HostPort(host string, port uint16) string {
	return net.JoinHostPort(StripIPV6Brackets(host), itoa(port))
}
