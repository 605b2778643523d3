package identity

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier compares a supplied password with the stored credential.
type CredentialVerifier interface {
	Verify(stored, supplied string) bool
	// Encode turns a clear password into the form kept in the identity stores.
	Encode(password string) (string, error)
}

const (
	SchemePlain  = "plain"
	SchemeBcrypt = "bcrypt"
)

func NewVerifier(scheme string) (CredentialVerifier, error) {
	switch scheme {
	case "", SchemePlain:
		return PlainVerifier{}, nil
	case SchemeBcrypt:
		return BcryptVerifier{Cost: bcrypt.DefaultCost}, nil
	}
	return nil, fmt.Errorf("unknown credential scheme %q", scheme)
}

// PlainVerifier stores credentials as given and compares them by exact equality.
// No normalization and no hashing. An empty stored credential never matches.
type PlainVerifier struct{}

func (PlainVerifier) Verify(stored, supplied string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

func (PlainVerifier) Encode(password string) (string, error) { return password, nil }

type BcryptVerifier struct {
	Cost int
}

func (BcryptVerifier) Verify(stored, supplied string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
}

func (v BcryptVerifier) Encode(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
