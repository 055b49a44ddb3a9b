// Package session holds signed-in identities and the per-session workspace built around them.
package session

import (
	"time"

	"storefront/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is who a session belongs to.
type Identity struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// NewIdentity builds an identity from an auth answer. The token's exp claim is read without
// verifying the signature; the store service verifies tokens on every call.
func NewIdentity(res model.AuthResult) Identity {
	id := Identity{
		Token:   res.Token,
		UserID:  res.UserID,
		Name:    res.Name,
		Email:   res.Email,
		IsAdmin: res.IsAdmin,
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(res.Token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			id.ExpiresAt = exp.Time
		}
		if id.UserID == "" {
			if sub, err := claims.GetSubject(); err == nil && sub != "" {
				id.UserID = sub
			} else if v, ok := claims["id"].(string); ok {
				id.UserID = v
			}
		}
	}
	return id
}

// Expired reports whether the token has passed its exp claim at now.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// TTL is how long the identity should be kept, capped at max.
func (i Identity) TTL(now time.Time, max time.Duration) time.Duration {
	if i.ExpiresAt.IsZero() {
		return max
	}
	left := i.ExpiresAt.Sub(now)
	if left < max {
		return left
	}
	return max
}
