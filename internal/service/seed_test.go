package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counterpos/pos-service/internal/models"
	"github.com/counterpos/pos-service/internal/service/servicetest"
)

func TestSeederIsIdempotent(t *testing.T) {
	store := servicetest.New()
	seeder := NewSeeder(store.Users(), store.References(), store.Categories(), store.Products())
	ctx := context.Background()

	require.NoError(t, seeder.SeedReference(ctx))
	require.NoError(t, seeder.SeedReference(ctx))

	created, err := seeder.SeedAdmin(ctx, "admin", "admin12345")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = seeder.SeedAdmin(ctx, "admin", "other-password")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := store.Users().GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive())

	auth := NewAuthService(store.Users(), nil, JWTConfig{Secret: "s", ExpiresIn: 1})
	_, err = auth.Login(ctx, "admin", "admin12345")
	assert.NoError(t, err, "the first password is kept")
}

func TestSeedSampleCatalog(t *testing.T) {
	store := servicetest.NewSeeded()
	seeder := NewSeeder(store.Users(), store.References(), store.Categories(), store.Products())
	ctx := context.Background()

	n, err := seeder.SeedSampleCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = seeder.SeedSampleCatalog(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
