package token

import "errors"

var (
	// ErrInvalidToken covers malformed tokens and signature mismatches alike.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrMissingSecret is a configuration error: no signing secret was provided.
	ErrMissingSecret = errors.New("signing secret is not configured")
)
