package models

import "github.com/golang-jwt/jwt/v5"

// UpstreamClaims is the subset of the store's bearer token the gateway reads.
// Signatures are checked by the gateway when it holds the signing key, otherwise
// by the store.
type UpstreamClaims struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Owner returns the identity stamped on writes.
func (c *UpstreamClaims) Owner() string {
	if c == nil {
		return ""
	}
	if c.Username != "" {
		return c.Username
	}
	return c.Subject
}
