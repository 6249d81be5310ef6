package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kaczcards/card-show-finder-sub014/internal/models"
)

func setupProfileDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:auth_profiles_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}))
	return db
}

func TestGormProfileStore_Lookup(t *testing.T) {
	db := setupProfileDB(t)
	store := NewGormProfileStore(db)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &models.Profile{ID: "u-1", Email: "a@example.com", Role: "dealer"}))

	p, err := store.Lookup(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "dealer", p.Role)

	_, err = store.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestGate_WithGormProfiles(t *testing.T) {
	db := setupProfileDB(t)
	store := NewGormProfileStore(db)
	require.NoError(t, store.Upsert(context.Background(), &models.Profile{ID: "admin-1", Email: "root@example.com", Role: RoleAdmin}))

	provider := NewJWTProvider("s3cret", JWTOptions{})
	token, err := provider.Sign("admin-1", "root@example.com", time.Minute)
	require.NoError(t, err)

	res := NewGate(provider, store).VerifyAuth(context.Background(), newRequest("Bearer "+token))
	assert.True(t, res.IsAdmin())

	orphan, err := provider.Sign("ghost", "ghost@example.com", time.Minute)
	require.NoError(t, err)
	res = NewGate(provider, store).VerifyAuth(context.Background(), newRequest("Bearer "+orphan))
	assert.True(t, res.Authenticated)
	assert.Equal(t, RoleUnknown, res.User.Role)
}
