package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access token claims issued by the identity provider.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTOptions constrain which tokens a JWTProvider accepts.
type JWTOptions struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
	// Now overrides the clock used for expiry checks.
	Now func() time.Time
}

// JWTProvider verifies HS256 access tokens signed with a shared secret.
type JWTProvider struct {
	secret []byte
	opts   JWTOptions
}

// NewJWTProvider creates a provider for the given signing secret.
func NewJWTProvider(secret string, opts JWTOptions) *JWTProvider {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &JWTProvider{secret: []byte(secret), opts: opts}
}

// VerifyToken validates signature, expiry and the configured issuer/audience.
func (p *JWTProvider) VerifyToken(_ context.Context, token string) (Identity, error) {
	if len(p.secret) == 0 {
		return Identity{}, fmt.Errorf("%w: signing secret not configured", ErrInvalidToken)
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.opts.Now),
	}
	if p.opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(p.opts.Issuer))
	}
	if p.opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(p.opts.Audience))
	}
	if p.opts.Leeway > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(p.opts.Leeway))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{ID: claims.Subject, Email: claims.Email}, nil
}

// Sign issues a token for subject. Used by the seed tooling and tests.
func (p *JWTProvider) Sign(subject, email string, ttl time.Duration) (string, error) {
	now := p.opts.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if p.opts.Issuer != "" {
		claims.Issuer = p.opts.Issuer
	}
	if p.opts.Audience != "" {
		claims.Audience = jwt.ClaimStrings{p.opts.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
