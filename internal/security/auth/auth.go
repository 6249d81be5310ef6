// Package auth verifies bearer credentials against an identity provider and
// resolves the caller's application role.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/kaczcards/card-show-finder-sub014/internal/logger"
	"github.com/kaczcards/card-show-finder-sub014/internal/models"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/request"
)

const (
	// RoleAdmin passes every role requirement.
	RoleAdmin = "admin"
	// RoleUnknown is assigned when the identity is valid but its profile could not be read.
	RoleUnknown = "unknown"
)

var (
	ErrMissingAuthHeader = errors.New("missing or invalid authorization header")
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrProfileNotFound   = errors.New("profile not found")
)

// User is the authenticated caller.
type User struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Result is the outcome of VerifyAuth. It is derived on every request and never cached.
type Result struct {
	Authenticated bool
	User          *User
	Error         string
}

// IsAdmin reports whether the result carries an authenticated admin.
func (r Result) IsAdmin() bool {
	return r.Authenticated && r.User != nil && r.User.Role == RoleAdmin
}

// UserID returns the authenticated subject id or "".
func (r Result) UserID() string {
	if !r.Authenticated || r.User == nil {
		return ""
	}
	return r.User.ID
}

// Identity is what the identity provider knows about a token's subject.
type Identity struct {
	ID    string
	Email string
}

// IdentityProvider exchanges a bearer token for a subject identity.
type IdentityProvider interface {
	VerifyToken(ctx context.Context, token string) (Identity, error)
}

// ProfileStore resolves application profiles by subject id.
type ProfileStore interface {
	Lookup(ctx context.Context, id string) (*models.Profile, error)
}

// Gate verifies credentials. It is safe for concurrent use.
type Gate struct {
	provider IdentityProvider
	profiles ProfileStore
}

// NewGate creates a Gate. profiles may be nil, in which case every
// authenticated caller gets RoleUnknown.
func NewGate(provider IdentityProvider, profiles ProfileStore) *Gate {
	return &Gate{provider: provider, profiles: profiles}
}

// VerifyAuth authenticates the request's bearer token. It never returns an
// error: failures are reported as an unauthenticated Result.
func (g *Gate) VerifyAuth(ctx context.Context, req *request.Request) Result {
	token, err := BearerToken(req.Header.Get("Authorization"))
	if err != nil {
		return failClosed(err)
	}
	if g.provider == nil {
		return failClosed(ErrInvalidToken)
	}

	ident, err := g.provider.VerifyToken(ctx, token)
	if err != nil {
		logger.Source("auth").WithError(err).Debug("token verification failed")
		return failClosed(err)
	}

	user := &User{ID: ident.ID, Role: RoleUnknown, Email: ident.Email}
	if g.profiles != nil {
		profile, err := g.profiles.Lookup(ctx, ident.ID)
		if err != nil {
			// Authentication stands; only the role is degraded.
			logger.Source("auth").WithError(err).WithField("user_id", ident.ID).Warn("profile lookup failed, role set to unknown")
		} else {
			if profile.Role != "" {
				user.Role = profile.Role
			}
			if profile.Email != "" {
				user.Email = profile.Email
			}
		}
	}
	return Result{Authenticated: true, User: user}
}

// failClosed turns any verification failure into an unauthenticated result:
// "could not verify" must never read as "verified".
func failClosed(err error) Result {
	msg := "authentication failed"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Result{Authenticated: false, Error: msg}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingAuthHeader
	}
	return parts[1], nil
}

// HasRequiredRoles reports whether user satisfies roles. An empty list always
// passes and admins pass every list.
func HasRequiredRoles(user *User, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if user == nil {
		return false
	}
	if user.Role == RoleAdmin {
		return true
	}
	for _, r := range roles {
		if r == user.Role {
			return true
		}
	}
	return false
}
