package tlsutil

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPublicPrivateKeyPair is returned when the client key doesn't belong to the client certificate.
	ErrInvalidPublicPrivateKeyPair = errors.New("client key does not match the client certificate")

	// ErrInvalidPasswordInputDataOrKey is returned when an encrypted key/bundle can't be decrypted, either the password
	// is wrong or the key uses an unsupported format.
	ErrInvalidPasswordInputDataOrKey = errors.New("failed to decrypt client key, the password is incorrect or the " +
		"key format/type is unsupported")

	// ErrPasswordProvidedButUnused is returned when a password is given alongside an unencrypted key.
	ErrPasswordProvidedButUnused = errors.New("a client key password was provided but the key is not encrypted")
)

// ParseCertKeyError is returned when PEM data doesn't contain the expected certificates or key.
type ParseCertKeyError struct {
	// What failed to parse e.g. 'certificates' or 'private key'.
	What string

	// Password indicates whether a password was provided.
	Password bool
}

func (p ParseCertKeyError) Error() string {
	hint := "check that it's PEM encoded, or provide a password if it's encrypted"
	if p.Password {
		hint = "check that it's PEM encoded, or omit the password if it's not encrypted"
	}

	return fmt.Sprintf("failed to parse %s: %s", p.What, hint)
}
