package couchvalue

// ServerInfo is the welcome message returned by 'GET /' on a CouchDB node.
type ServerInfo struct {
	CouchDB  string   `json:"couchdb"`
	Version  Version  `json:"version"`
	Vendor   Vendor   `json:"vendor"`
	UUID     string   `json:"uuid,omitempty"`
	Features []string `json:"features,omitempty"`
}

// Vendor identifies who built the running CouchDB release.
type Vendor struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Supported returns a boolean indicating whether the node is new enough to take part in cluster formation.
func (s ServerInfo) Supported() bool {
	return s.Version.AtLeast(MinimumSupportedVersion)
}
