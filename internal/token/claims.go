package token

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Lifetime is how long an issued session token stays valid.
const Lifetime = 7 * 24 * time.Hour

var claimsValidator = validator.New()

// Identity is what a login flow hands to the session service. Timestamps are
// never part of it; the issuer sets them.
type Identity struct {
	SubjectID   string
	ExternalID  string
	DisplayName string
	EmployeeID  string
	Roles       []string
	Permissions []string
}

// Claims represents the signed session payload
type Claims struct {
	SubjectID   string   `json:"sub" validate:"required"`
	ExternalID  string   `json:"external_id" validate:"required"`
	DisplayName string   `json:"name"`
	EmployeeID  string   `json:"employee_id,omitempty"`
	Roles       []string `json:"roles,omitempty" validate:"omitempty,dive,required"`
	Permissions []string `json:"permissions,omitempty" validate:"omitempty,dive,required"`
	IssuedAt    int64    `json:"iat" validate:"gt=0"`
	ExpiresAt   int64    `json:"exp" validate:"gtfield=IssuedAt"`
}

// Identity returns the identity the claims were issued for.
func (c *Claims) Identity() Identity {
	return Identity{
		SubjectID:   c.SubjectID,
		ExternalID:  c.ExternalID,
		DisplayName: c.DisplayName,
		EmployeeID:  c.EmployeeID,
		Roles:       append([]string(nil), c.Roles...),
		Permissions: append([]string(nil), c.Permissions...),
	}
}

// HasRole reports whether the claims carry the given role
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the claims carry the given permission
func (c *Claims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// ExpiresAtTime returns the expiry as a time.Time
func (c *Claims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// header is the fixed token header
type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

var sessionHeader = header{Alg: "HS256", Typ: "JWT"}

// decodeClaims decodes a payload segment and rejects anything that does not
// conform to the Claims schema, including unknown fields.
func decodeClaims(segment string) (*Claims, error) {
	raw, err := decodeRaw(segment)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var claims Claims
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode claims: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after claims")
	}

	if err := claimsValidator.Struct(&claims); err != nil {
		return nil, fmt.Errorf("claims do not conform: %w", err)
	}

	return &claims, nil
}
