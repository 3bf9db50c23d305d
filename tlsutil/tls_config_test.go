package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/youmark/pkcs8"
)

type testKeyPair struct {
	key     *ecdsa.PrivateKey
	certPEM []byte
	keyPEM  []byte
}

func newTestKeyPair(t *testing.T) testKeyPair {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "admin"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		IsCA:         true,

		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	return testKeyPair{
		key:     key,
		certPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		keyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	}
}

func TestNewTLSConfigDefaults(t *testing.T) {
	config, err := NewTLSConfig(Options{})
	require.NoError(t, err)
	require.False(t, config.InsecureSkipVerify)
	require.Equal(t, uint16(tls.VersionTLS12), config.MinVersion)
	require.Nil(t, config.RootCAs)
	require.Empty(t, config.Certificates)
}

func TestNewTLSConfigNoSSLVerify(t *testing.T) {
	pair := newTestKeyPair(t)

	config, err := NewTLSConfig(Options{NoSSLVerify: true, CACert: pair.certPEM, MinVersion: tls.VersionTLS13})
	require.NoError(t, err)
	require.True(t, config.InsecureSkipVerify)
	require.Equal(t, uint16(tls.VersionTLS13), config.MinVersion)

	// There's no point populating the pool when verification is disabled
	require.Nil(t, config.RootCAs)
}

func TestNewTLSConfigCACert(t *testing.T) {
	pair := newTestKeyPair(t)

	config, err := NewTLSConfig(Options{CACert: pair.certPEM})
	require.NoError(t, err)
	require.NotNil(t, config.RootCAs)
}

func TestNewTLSConfigInvalidCACert(t *testing.T) {
	_, err := NewTLSConfig(Options{CACert: []byte("not a certificate")})

	var parseErr ParseCertKeyError

	require.ErrorAs(t, err, &parseErr)
}

func TestNewTLSConfigValidClientKeyPair(t *testing.T) {
	pair := newTestKeyPair(t)

	config, err := NewTLSConfig(Options{ClientCert: pair.certPEM, ClientKey: pair.keyPEM})
	require.NoError(t, err)
	require.Len(t, config.Certificates, 1)
	require.NotNil(t, config.Certificates[0].Leaf)
	require.Equal(t, "admin", config.Certificates[0].Leaf.Subject.CommonName)
	require.True(t, pair.key.Equal(config.Certificates[0].PrivateKey))
}

func TestNewTLSConfigMismatchedClientKeyPair(t *testing.T) {
	var (
		first  = newTestKeyPair(t)
		second = newTestKeyPair(t)
	)

	_, err := NewTLSConfig(Options{ClientCert: first.certPEM, ClientKey: second.keyPEM})
	require.ErrorIs(t, err, ErrInvalidPublicPrivateKeyPair)
}

func TestNewTLSConfigEncryptedPKCS8(t *testing.T) {
	pair := newTestKeyPair(t)

	der, err := pkcs8.MarshalPrivateKey(pair.key, []byte("asdasd"), nil)
	require.NoError(t, err)

	t.Run("DER", func(t *testing.T) {
		config, err := NewTLSConfig(Options{ClientCert: pair.certPEM, ClientKey: der, Password: []byte("asdasd")})
		require.NoError(t, err)
		require.True(t, pair.key.Equal(config.Certificates[0].PrivateKey))
	})

	t.Run("PEM", func(t *testing.T) {
		encoded := pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der})

		config, err := NewTLSConfig(Options{ClientCert: pair.certPEM, ClientKey: encoded, Password: []byte("asdasd")})
		require.NoError(t, err)
		require.True(t, pair.key.Equal(config.Certificates[0].PrivateKey))
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := NewTLSConfig(Options{ClientCert: pair.certPEM, ClientKey: der, Password: []byte("wrong")})
		require.Error(t, err)
	})
}

func TestNewTLSConfigUnencryptedWithPassword(t *testing.T) {
	pair := newTestKeyPair(t)

	_, err := NewTLSConfig(Options{ClientCert: pair.certPEM, ClientKey: pair.keyPEM, Password: []byte("asdasd")})
	require.ErrorIs(t, err, ErrPasswordProvidedButUnused)
}

func TestNewTLSConfigInvalidPKCS12(t *testing.T) {
	_, err := NewTLSConfig(Options{ClientCert: []byte("not a pkcs12 bundle"), Password: []byte("asdasd")})
	require.Error(t, err)
}

func TestNewTLSConfigEmptyCert(t *testing.T) {
	pair := newTestKeyPair(t)

	_, err := NewTLSConfig(Options{ClientCert: []byte{}, ClientKey: pair.keyPEM})

	var parseErr ParseCertKeyError

	require.ErrorAs(t, err, &parseErr)
}

func TestOptionsValidate(t *testing.T) {
	type test struct {
		name    string
		options Options
		valid   bool
	}

	tests := []*test{
		{name: "Empty", valid: true},
		{name: "PasswordWithoutCert", options: Options{Password: []byte("pass")}},
		{name: "KeyWithoutCert", options: Options{ClientKey: []byte("key")}},
		{name: "CertWithoutKeyOrPassword", options: Options{ClientCert: []byte("cert")}},
		{name: "PKCS12", options: Options{ClientCert: []byte("cert"), Password: []byte("pass")}, valid: true},
		{name: "CertAndKey", options: Options{ClientCert: []byte("cert"), ClientKey: []byte("key")}, valid: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.options.Validate()
			if test.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestLoadOptions(t *testing.T) {
	var (
		pair = newTestKeyPair(t)
		dir  = t.TempDir()
	)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ca.pem"), pair.certPEM, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cert.pem"), pair.certPEM, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "key.pem"), pair.keyPEM, 0o600))

	options, err := LoadOptions(Paths{
		CACert:     filepath.Join(dir, "ca.pem"),
		ClientCert: filepath.Join(dir, "cert.pem"),
		ClientKey:  filepath.Join(dir, "key.pem"),
	}, nil, false)
	require.NoError(t, err)
	require.Equal(t, pair.certPEM, options.CACert)
	require.Equal(t, pair.keyPEM, options.ClientKey)
	require.True(t, options.Enabled())

	_, err = NewTLSConfig(options)
	require.NoError(t, err)
}

func TestLoadOptionsMissingFile(t *testing.T) {
	_, err := LoadOptions(Paths{CACert: filepath.Join(t.TempDir(), "missing.pem")}, nil, false)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOptionsEmpty(t *testing.T) {
	options, err := LoadOptions(Paths{}, nil, false)
	require.NoError(t, err)
	require.False(t, options.Enabled())
}
