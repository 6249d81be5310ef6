package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTProvider_RoundTrip(t *testing.T) {
	p := NewJWTProvider("test-secret", JWTOptions{Issuer: "https://idp.example.com", Audience: "authenticated"})
	token, err := p.Sign("user-42", "collector@example.com", time.Hour)
	require.NoError(t, err)

	ident, err := p.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", ident.ID)
	assert.Equal(t, "collector@example.com", ident.Email)
}

func TestJWTProvider_Rejects(t *testing.T) {
	p := NewJWTProvider("test-secret", JWTOptions{Audience: "authenticated"})
	ctx := context.Background()

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTProvider("other-secret", JWTOptions{Audience: "authenticated"})
		token, err := other.Sign("user-1", "", time.Hour)
		require.NoError(t, err)
		_, err = p.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewJWTProvider("test-secret", JWTOptions{Audience: "authenticated", Now: func() time.Time {
			return time.Now().Add(-2 * time.Hour)
		}})
		token, err := past.Sign("user-1", "", time.Hour)
		require.NoError(t, err)
		_, err = p.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewJWTProvider("test-secret", JWTOptions{Audience: "service_role"})
		token, err := other.Sign("user-1", "", time.Hour)
		require.NoError(t, err)
		_, err = p.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := p.Sign("", "", time.Hour)
		require.NoError(t, err)
		_, err = p.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = p.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no secret configured", func(t *testing.T) {
		_, err := NewJWTProvider("", JWTOptions{}).VerifyToken(ctx, "x.y.z")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
