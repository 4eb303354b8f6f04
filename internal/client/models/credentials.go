package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/hbd/internal/common"
)

// Scheme selects how the client proves its identity to the backend.
// A deployment uses exactly one; credentials of one scheme are not valid
// in the other.
type Scheme string

const (
	// SchemeKey uses a client-generated 64-character key as a long static
	// password, sent in the request body.
	SchemeKey Scheme = "key"
	// SchemeToken uses a server-issued bearer token sent in the
	// Authorization header. The token may rotate on profile updates.
	SchemeToken Scheme = "token"
)

// ParseScheme validates a scheme name from configuration.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeKey:
		return SchemeKey, nil
	case SchemeToken:
		return SchemeToken, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScheme, s)
	}
}

// Credentials is the (email, bearer credential) pair presented with every
// authenticated request.
type Credentials struct {
	Email  string
	Secret string
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// KeyLength is the exact length of an encryption key in characters.
const KeyLength = common.EncryptionKeySize * 2

// ValidateEmail checks presence and the superficial format of an email.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmptyEmail
	}
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateKey checks that key is exactly KeyLength characters long. Any
// characters are accepted; generated keys happen to be hex.
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyCredential
	}
	if len(key) != KeyLength {
		return ErrInvalidKey
	}
	return nil
}

// ValidateCredential applies the scheme's local checks to a login credential:
// an exact-length key for SchemeKey, a non-empty password for SchemeToken.
func ValidateCredential(scheme Scheme, credential string) error {
	switch scheme {
	case SchemeKey:
		return ValidateKey(credential)
	case SchemeToken:
		if credential == "" {
			return ErrEmptyCredential
		}
		return nil
	default:
		return ErrUnknownScheme
	}
}

// GenerateKey returns a fresh random encryption key of KeyLength hex characters.
func GenerateKey() (string, error) {
	return common.MakeRandHexString(common.EncryptionKeySize)
}
