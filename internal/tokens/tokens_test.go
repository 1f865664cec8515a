package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-secret-32-bytes-long-enough"))
	require.NoError(t, err)
	return s
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	raw := mintToken(t, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()})

	got, err := ExpiresAt(raw)
	require.NoError(t, err)
	require.True(t, got.Equal(exp), "got=%v want=%v", got, exp)
}

func TestExpiresAt_NoClaim(t *testing.T) {
	raw := mintToken(t, jwt.MapClaims{"sub": "u1"})
	_, err := ExpiresAt(raw)
	require.ErrorIs(t, err, ErrNoExpiry)
}

func TestIsExpired(t *testing.T) {
	future := mintToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	past := mintToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})

	require.False(t, IsExpired(future))
	require.True(t, IsExpired(past))
}

func TestIsExpired_FailClosed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments only", "aGVhZGVy.cGF5bG9hZA"},
		{"payload not base64", "eyJhbGciOiJIUzI1NiJ9.!!!.sig"},
		{"payload not json", "eyJhbGciOiJIUzI1NiJ9.bm90LWpzb24.sig"},
		{"missing exp", mintToken(t, jwt.MapClaims{"sub": "u1"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.True(t, IsExpired(tc.raw))
		})
	}
}

func TestIsExpired_Boundary(t *testing.T) {
	// a token whose exp equals "now" is already expired
	now := time.Now().Truncate(time.Second)
	raw := mintToken(t, jwt.MapClaims{"exp": now.Unix()})
	require.True(t, isExpiredAt(raw, now))
	require.False(t, isExpiredAt(raw, now.Add(-time.Second)))
}
