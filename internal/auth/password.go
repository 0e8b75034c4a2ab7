package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned when a password does not match its digest
var ErrPasswordMismatch = errors.New("invalid password")

// unknownAccountDigest stands in for the digest of an account that does not
// exist, so an unknown externalId costs the same bcrypt comparison as a
// wrong password.
var unknownAccountDigest = sync.OnceValue(func() string {
	digest, err := bcrypt.GenerateFromPassword([]byte("datalab-unknown-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("failed to build unknown account digest: %v", err))
	}
	return string(digest)
})

// VerifyPassword verifies a password against a bcrypt digest
func VerifyPassword(password, digest string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("failed to verify password: %w", err)
	}
	return nil
}

// HashPassword creates a bcrypt digest of a password
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}
