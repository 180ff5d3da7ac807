package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Verifier decides whether a presented admin password is acceptable.
type Verifier interface {
	Verify(presented string) bool
}

// SecretVerifier accepts exactly one configured plaintext secret.
type SecretVerifier struct {
	secret []byte
}

// NewSecretVerifier returns a verifier comparing against secret.
func NewSecretVerifier(secret string) *SecretVerifier {
	return &SecretVerifier{secret: []byte(secret)}
}

// Verify reports whether presented equals the secret. An empty secret
// never matches.
func (v *SecretVerifier) Verify(presented string) bool {
	if len(v.secret) == 0 {
		return false
	}
	// Constant-time compare to prevent timing attacks.
	return subtle.ConstantTimeCompare([]byte(presented), v.secret) == 1
}

// BcryptVerifier accepts passwords matching a bcrypt hash.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier validates hash and returns a verifier for it.
func NewBcryptVerifier(hash string) (*BcryptVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, errors.New("auth: invalid bcrypt hash")
	}
	return &BcryptVerifier{hash: []byte(hash)}, nil
}

func (v *BcryptVerifier) Verify(presented string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(presented)) == nil
}

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("auth: password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
