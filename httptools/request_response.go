package httptools

import "github.com/couchbase/couchdb-cluster-setup/netutil"

// Method is a readability wrapper around the HTTP method used for a request.
type Method string

// ContentTypeJSON is sent as both the 'Content-Type' and 'Accept' header, nodes only speak JSON.
const ContentTypeJSON = "application/json"

// Request encapsulates the parameters required to send a single REST request to a node.
type Request struct {
	// Host is the scheme, host and port the request should be sent to e.g. 'http://10.0.0.1:5984'.
	Host string

	// Endpoint is the path the request is sent to.
	Endpoint Endpoint

	// Method is the HTTP method, only idempotent methods are retried.
	Method Method

	// Body is the raw JSON request body, may be empty.
	Body []byte

	// ExpectedStatusCode is the status code which indicates the request was successful.
	ExpectedStatusCode int
}

func (r *Request) idempotent() bool {
	return netutil.IsMethodIdempotent(string(r.Method))
}

// Response represents a REST response which has been read to completion.
type Response struct {
	StatusCode int
	Body       []byte
}
