package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned when the token payload carries no exp claim.
var ErrNoExpiry = errors.New("exp claim not present")

// ExpiresAt decodes the JWT payload and returns the `exp` claim as time.Time.
// This performs payload-only parsing (no signature verification); the token
// content is the source of truth and nothing is cached.
func ExpiresAt(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// IsExpired reports whether the access token is unusable. An empty token,
// a token that fails to decode, or one without an exp claim counts as
// expired (fail-closed).
func IsExpired(raw string) bool {
	return isExpiredAt(raw, time.Now())
}

func isExpiredAt(raw string, now time.Time) bool {
	if raw == "" {
		return true
	}
	exp, err := ExpiresAt(raw)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}
