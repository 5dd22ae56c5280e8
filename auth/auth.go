// Package auth inspects the client's auth token.
//
// The client never verifies signatures, that is the backend's job. It
// only reads the expiry claim so an obviously dead token short-circuits
// to a forced logout instead of a doomed request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry means the token carries no exp claim.
var ErrNoExpiry = errors.New("token has no expiry claim")

// Expiry returns the token's expiry time without verifying the signature.
func Expiry(token string) (time.Time, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// Usable reports whether the token is present, decodable, and not yet
// expired at now. Tokens without an expiry claim count as unusable.
func Usable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	exp, err := Expiry(token)
	if err != nil {
		return false
	}
	return now.Before(exp)
}
