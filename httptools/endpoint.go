package httptools

// Endpoint is the path of a REST endpoint on a node e.g. '/_cluster_setup'. Endpoints are declared as constants by the
// packages which use them.
//
// NOTE: Endpoints never include a query string, use the 'QueryParameters' of the 'Request' instead.
type Endpoint string
