package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Sign computes the HMAC-SHA256 of message keyed by secret, base64url encoded.
func Sign(message, secret string) (string, error) {
	sig, err := jwt.SigningMethodHS256.Sign(message, []byte(secret))
	if err != nil {
		return "", err
	}
	return encodeRaw(sig), nil
}

// Verify reports whether signature is the valid MAC of message under secret.
// The comparison is constant time. Malformed input yields false.
func Verify(message, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	sig, err := decodeRaw(signature)
	if err != nil {
		return false
	}
	return jwt.SigningMethodHS256.Verify(message, sig, []byte(secret)) == nil
}
