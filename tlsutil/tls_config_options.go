package tlsutil

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
)

// Options encapsulates the available options for creating a TLS config used to reach the admin endpoints of nodes
// over 'https'.
type Options struct {
	// CACert contains PEM encoded certificates used to verify the nodes, in addition to the system pool.
	CACert []byte

	// NoSSLVerify disables verification of the certificates presented by the nodes.
	NoSSLVerify bool

	// ClientCert is either a PEM encoded certificate chain, or an encrypted PKCS#12 bundle containing both the chain
	// and key (in which case 'ClientKey' must be omitted).
	ClientCert []byte

	// ClientKey is a PEM encoded private key, either unencrypted or encrypted PKCS#8.
	ClientKey []byte

	// Password decrypts the client key, or the PKCS#12 bundle.
	Password []byte

	// MinVersion defaults to TLS 1.2.
	MinVersion uint16
}

// Validate returns an error if the given options are invalid for some reason.
func (o *Options) Validate() error {
	if len(o.Password) != 0 && (o.ClientCert == nil && o.ClientKey == nil) {
		return errors.New("password provided without a client cert/key")
	}

	if o.ClientCert == nil && o.ClientKey != nil {
		return errors.New("client key provided without a certificate")
	}

	if o.ClientCert != nil && o.ClientKey == nil && len(o.Password) == 0 {
		return errors.New("client cert/key file provided without a password; expect an encrypted PKCS#12 file")
	}

	return nil
}

// Paths are the files the TLS options may be loaded from, empty paths are skipped.
type Paths struct {
	CACert     string
	ClientCert string
	ClientKey  string
}

// LoadOptions reads the files at the given paths into a set of options.
func LoadOptions(paths Paths, password []byte, noSSLVerify bool) (Options, error) {
	options := Options{Password: password, NoSSLVerify: noSSLVerify, MinVersion: tls.VersionTLS12}

	files := []struct {
		name string
		path string
		dest *[]byte
	}{
		{name: "CA certificate", path: paths.CACert, dest: &options.CACert},
		{name: "client certificate", path: paths.ClientCert, dest: &options.ClientCert},
		{name: "client key", path: paths.ClientKey, dest: &options.ClientKey},
	}

	for _, file := range files {
		if file.path == "" {
			continue
		}

		data, err := os.ReadFile(file.path)
		if err != nil {
			return Options{}, fmt.Errorf("failed to read %s: %w", file.name, err)
		}

		*file.dest = data
	}

	return options, options.Validate()
}

// Enabled returns a boolean indicating whether any option which changes the default TLS behavior has been provided.
func (o *Options) Enabled() bool {
	return o.CACert != nil || o.NoSSLVerify || o.ClientCert != nil
}
