// Package tlsutil builds the client TLS configuration used to reach the admin endpoints of nodes over https.
package tlsutil

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/pkcs12"

	"github.com/couchbase/couchdb-cluster-setup/errutil"
)

// NewTLSConfig creates a new client TLS config which either skips verification of the nodes certificates, or verifies
// them using the system pool plus any provided CA certificates. A client certificate is presented when one is provided.
func NewTLSConfig(options Options) (*tls.Config, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	config := &tls.Config{
		InsecureSkipVerify: options.NoSSLVerify, //nolint:gosec
		MinVersion:         max(options.MinVersion, tls.VersionTLS12),
	}

	if options.ClientCert != nil {
		cert, err := loadClientCertificate(options)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		config.Certificates = []tls.Certificate{*cert}
	}

	if options.CACert != nil && !options.NoSSLVerify {
		pool, err := rootCAs(options.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to load CA certificates: %w", err)
		}

		config.RootCAs = pool
	}

	return config, nil
}

// loadClientCertificate returns the client certificate chain and key, either from separate PEM data or from a single
// encrypted PKCS#12 bundle.
func loadClientCertificate(options Options) (*tls.Certificate, error) {
	var (
		blocks []*pem.Block
		key    any
		err    error
	)

	if options.ClientKey == nil {
		blocks, err = decodePKCS12(options.ClientCert, options.Password)
		if err != nil {
			return nil, err
		}

		key = firstPrivateKey(blocks)
	} else {
		blocks = decodePEM(options.ClientCert)

		key, err = decodePrivateKey(options.ClientKey, options.Password)
		if err != nil {
			return nil, err
		}
	}

	cert := &tls.Certificate{PrivateKey: key}

	for _, block := range blocks {
		if strings.Contains(block.Type, "CERTIFICATE") {
			cert.Certificate = append(cert.Certificate, block.Bytes)
		}
	}

	if len(cert.Certificate) == 0 {
		return nil, ParseCertKeyError{What: "certificates", Password: len(options.Password) != 0}
	}

	if key == nil {
		return nil, ErrInvalidPasswordInputDataOrKey
	}

	// Parsed up-front, otherwise it's parsed during every handshake
	cert.Leaf, err = x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse leaf certificate: %w", err)
	}

	if !keysMatch(cert.Leaf, key) {
		return nil, ErrInvalidPublicPrivateKeyPair
	}

	return cert, nil
}

// decodePEM returns every PEM block in the given data.
func decodePEM(data []byte) []*pem.Block {
	blocks := make([]*pem.Block, 0, 1)

	for {
		var block *pem.Block

		block, data = pem.Decode(data)
		if block == nil {
			return blocks
		}

		blocks = append(blocks, block)
	}
}

// decodePKCS12 decrypts the given bundle into PEM blocks.
func decodePKCS12(data, password []byte) ([]*pem.Block, error) {
	blocks, err := pkcs12.ToPEM(data, string(password))
	if err != nil {
		return nil, keyError(err)
	}

	return blocks, nil
}

// firstPrivateKey returns the first parsable private key in the given blocks, or <nil>.
func firstPrivateKey(blocks []*pem.Block) any {
	for _, block := range blocks {
		if strings.Contains(block.Type, "PRIVATE KEY") {
			return parseUnencryptedPrivateKey(block.Bytes)
		}
	}

	return nil
}

// decodePrivateKey returns the private key in the given data, which is either PEM encoded (encrypted PKCS#8 or
// unencrypted) or DER encoded encrypted PKCS#8.
func decodePrivateKey(data, password []byte) (any, error) {
	block, _ := pem.Decode(data)

	switch {
	case block != nil && block.Type == "ENCRYPTED PRIVATE KEY":
		return decryptPKCS8(block.Bytes, password)
	case block != nil && len(password) != 0:
		return nil, ErrPasswordProvidedButUnused
	case block != nil && strings.Contains(block.Type, "PRIVATE KEY"):
		if key := parseUnencryptedPrivateKey(block.Bytes); key != nil {
			return key, nil
		}
	case block == nil && len(password) != 0:
		return decryptPKCS8(data, password)
	}

	return nil, ParseCertKeyError{What: "private key", Password: len(password) != 0}
}

func decryptPKCS8(der, password []byte) (any, error) {
	if len(password) == 0 {
		return nil, ParseCertKeyError{What: "private key"}
	}

	key, err := pkcs8.ParsePKCS8PrivateKey(der, password)
	if err != nil {
		return nil, keyError(err)
	}

	return key, nil
}

// parseUnencryptedPrivateKey parses a PKCS#1, PKCS#8 or EC private key, returning <nil> if it's none of them.
//
// See https://github.com/golang/go/blob/go1.21.0/src/crypto/tls/tls.go#L339-L356 for more information.
func parseUnencryptedPrivateKey(der []byte) any {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key
	}

	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return key
	}

	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key
	}

	return nil
}

// rootCAs returns the system pool with the given certificates added.
func rootCAs(data []byte) (*x509.CertPool, error) {
	// The system pool isn't available on every platform
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}

	if !pool.AppendCertsFromPEM(data) {
		return nil, ParseCertKeyError{What: "certificates"}
	}

	return pool, nil
}

// keysMatch returns a boolean indicating whether the private key belongs to the certificate, unknown key types are
// left for the handshake to reject.
//
// See https://github.com/golang/go/blob/go1.21.0/src/crypto/tls/tls.go#L304-L331 for more information.
func keysMatch(cert *x509.Certificate, key crypto.PrivateKey) bool {
	switch priv := key.(type) {
	case *rsa.PrivateKey:
		pub, ok := cert.PublicKey.(*rsa.PublicKey)
		return ok && priv.N.Cmp(pub.N) == 0
	case *ecdsa.PrivateKey:
		pub, ok := cert.PublicKey.(*ecdsa.PublicKey)
		return ok && priv.X.Cmp(pub.X) == 0 && priv.Y.Cmp(pub.Y) == 0
	case ed25519.PrivateKey:
		pub, ok := cert.PublicKey.(ed25519.PublicKey)
		return ok && bytes.Equal(pub, priv.Public().(ed25519.PublicKey))
	}

	return true
}

// keyError maps the errors returned for a wrong password, or an unsupported key, onto
// 'ErrInvalidPasswordInputDataOrKey'.
func keyError(err error) error {
	if errors.Is(err, pkcs12.ErrIncorrectPassword) {
		return ErrInvalidPasswordInputDataOrKey
	}

	for _, msg := range []string{"pkcs8: incorrect password", "unknown private key type", "with unknown algorithm"} {
		if errutil.Contains(err, msg) {
			return ErrInvalidPasswordInputDataOrKey
		}
	}

	return fmt.Errorf("failed to decrypt client key: %w", err)
}
