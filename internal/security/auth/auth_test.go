package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kaczcards/card-show-finder-sub014/internal/models"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/request"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) VerifyToken(ctx context.Context, token string) (Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(Identity), args.Error(1)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) Lookup(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func newRequest(authHeader string) *request.Request {
	h := http.Header{}
	if authHeader != "" {
		h.Set("Authorization", authHeader)
	}
	return &request.Request{Method: http.MethodGet, Path: "/", Header: h}
}

func TestVerifyAuth_MissingHeader(t *testing.T) {
	provider := &mockProvider{}
	gate := NewGate(provider, nil)

	res := gate.VerifyAuth(context.Background(), newRequest(""))
	assert.False(t, res.Authenticated)
	assert.NotEmpty(t, res.Error)
	assert.Nil(t, res.User)
	provider.AssertNotCalled(t, "VerifyToken", mock.Anything, mock.Anything)
}

func TestVerifyAuth_MalformedHeader(t *testing.T) {
	gate := NewGate(&mockProvider{}, nil)
	for _, h := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer a b", "token"} {
		res := gate.VerifyAuth(context.Background(), newRequest(h))
		assert.False(t, res.Authenticated, h)
		assert.Equal(t, ErrMissingAuthHeader.Error(), res.Error, h)
	}
}

func TestVerifyAuth_ProviderError(t *testing.T) {
	provider := &mockProvider{}
	provider.On("VerifyToken", mock.Anything, "bad").Return(Identity{}, errors.New("invalid JWT"))
	gate := NewGate(provider, &mockProfiles{})

	res := gate.VerifyAuth(context.Background(), newRequest("Bearer bad"))
	assert.False(t, res.Authenticated)
	assert.Equal(t, "invalid JWT", res.Error)
}

func TestVerifyAuth_ResolvesRole(t *testing.T) {
	provider := &mockProvider{}
	provider.On("VerifyToken", mock.Anything, "good").Return(Identity{ID: "u-1", Email: "idp@example.com"}, nil)
	profiles := &mockProfiles{}
	profiles.On("Lookup", mock.Anything, "u-1").Return(&models.Profile{ID: "u-1", Role: "organizer", Email: "me@example.com"}, nil)

	res := NewGate(provider, profiles).VerifyAuth(context.Background(), newRequest("Bearer good"))
	assert.True(t, res.Authenticated)
	assert.Equal(t, &User{ID: "u-1", Role: "organizer", Email: "me@example.com"}, res.User)
	assert.Equal(t, "u-1", res.UserID())
	assert.False(t, res.IsAdmin())
}

func TestVerifyAuth_ProfileMissingDegradesToUnknown(t *testing.T) {
	provider := &mockProvider{}
	provider.On("VerifyToken", mock.Anything, "good").Return(Identity{ID: "u-2", Email: "idp@example.com"}, nil)
	profiles := &mockProfiles{}
	profiles.On("Lookup", mock.Anything, "u-2").Return(nil, ErrProfileNotFound)

	res := NewGate(provider, profiles).VerifyAuth(context.Background(), newRequest("Bearer good"))
	assert.True(t, res.Authenticated)
	assert.Equal(t, RoleUnknown, res.User.Role)
	assert.Equal(t, "idp@example.com", res.User.Email)
}

func TestHasRequiredRoles(t *testing.T) {
	admin := &User{ID: "a", Role: RoleAdmin}
	dealer := &User{ID: "d", Role: "dealer"}

	assert.True(t, HasRequiredRoles(dealer, nil))
	assert.True(t, HasRequiredRoles(dealer, []string{}))
	assert.True(t, HasRequiredRoles(nil, nil))
	assert.True(t, HasRequiredRoles(admin, []string{"organizer"}))
	assert.True(t, HasRequiredRoles(dealer, []string{"organizer", "dealer"}))
	assert.False(t, HasRequiredRoles(dealer, []string{"organizer"}))
	assert.False(t, HasRequiredRoles(nil, []string{"organizer"}))
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def.ghi")
	assert.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	tok, err = BearerToken("bearer xyz")
	assert.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	_, err = BearerToken("")
	assert.ErrorIs(t, err, ErrMissingAuthHeader)
}
