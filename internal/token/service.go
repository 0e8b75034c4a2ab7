package token

import (
	"fmt"
	"strings"
	"time"
)

// Service is the only component that mints or accepts session tokens
type Service struct {
	secret   string
	lifetime time.Duration
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new session token service. A blank secret is a
// configuration error.
func NewService(secret string, opts ...Option) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}

	s := &Service{
		secret:   secret,
		lifetime: Lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue mints a token for identity. IssuedAt and ExpiresAt are always set here.
func (s *Service) Issue(identity Identity) (string, *Claims, error) {
	now := s.now().Unix()

	claims := &Claims{
		SubjectID:   identity.SubjectID,
		ExternalID:  identity.ExternalID,
		DisplayName: identity.DisplayName,
		EmployeeID:  identity.EmployeeID,
		Roles:       append([]string(nil), identity.Roles...),
		Permissions: append([]string(nil), identity.Permissions...),
		IssuedAt:    now,
		ExpiresAt:   now + int64(s.lifetime/time.Second),
	}

	if err := claimsValidator.Struct(claims); err != nil {
		return "", nil, fmt.Errorf("invalid identity: %w", err)
	}

	tokenString, err := s.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return tokenString, claims, nil
}

// Verify checks a token and returns its claims. Every malformed or forged
// token yields ErrInvalidToken; a genuine but stale token yields ErrTokenExpired.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}

	if !Verify(parts[0]+"."+parts[1], parts[2], s.secret) {
		return nil, ErrInvalidToken
	}

	var h header
	if err := DecodeSegment(parts[0], &h); err != nil || h != sessionHeader {
		return nil, ErrInvalidToken
	}

	claims, err := decodeClaims(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.ExpiresAt < s.now().Unix() {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

func (s *Service) sign(claims *Claims) (string, error) {
	h, err := EncodeSegment(sessionHeader)
	if err != nil {
		return "", err
	}
	p, err := EncodeSegment(claims)
	if err != nil {
		return "", err
	}

	signingInput := h + "." + p
	sig, err := Sign(signingInput, s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signingInput + "." + sig, nil
}
