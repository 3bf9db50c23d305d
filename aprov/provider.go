// Package aprov exposes the credential providers used to authenticate against node admin endpoints.
package aprov

// Provider is the interface used by HTTP clients to populate the credentials/user agent for each request.
type Provider interface {
	// GetCredentials returns the username/password which should be used to authenticate against the given host.
	GetCredentials(host string) (string, string)

	// GetUserAgent returns the user agent which should be sent with each request.
	GetUserAgent() string
}
