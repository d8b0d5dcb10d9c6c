// Package auth issues and validates the bearer tokens that identify the
// person behind each request.
package auth

import (
	"context"
	"time"
)

// JWTService issues and validates signed access tokens.
type JWTService interface {
	// GenerateToken creates a signed token identifying personID.
	GenerateToken(ctx context.Context, personID string) (string, error)

	// ValidateToken verifies tokenString and returns its claims. It returns
	// ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the validated contents of an access token.
type Claims struct {
	// PersonID is the entity ID of the person the token was issued for.
	PersonID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
