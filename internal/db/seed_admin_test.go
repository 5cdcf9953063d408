package db_test

import (
	"context"
	"testing"

	"github.com/geocoder89/inkpost/internal/config"
	"github.com/geocoder89/inkpost/internal/db"
	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/repo/memory"
	"github.com/geocoder89/inkpost/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore().Accounts()

	cfg := config.Config{
		AdminEmail:    " Root@Example.com ",
		AdminUsername: "root",
		AdminPassword: "super-secret-pass",
	}

	created, err := db.EnsureAdminAccount(ctx, store, cfg)
	require.NoError(t, err)
	assert.True(t, created)

	a, err := store.GetByLogin(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.RoleAdmin, a.Role)
	assert.True(t, a.IsVerified)
	assert.NoError(t, security.CheckPassword(a.PasswordHash, "super-secret-pass"))

	created, err = db.EnsureAdminAccount(ctx, store, cfg)
	require.NoError(t, err)
	assert.False(t, created, "second run must be a no-op")
}

func TestEnsureAdminAccount_Unconfigured(t *testing.T) {
	store := memory.NewStore().Accounts()

	created, err := db.EnsureAdminAccount(context.Background(), store, config.Config{AdminEmail: "a@example.com"})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = store.GetByLogin(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestEnsureAdminAccount_RejectsEmailShapedUsername(t *testing.T) {
	store := memory.NewStore().Accounts()

	_, err := db.EnsureAdminAccount(context.Background(), store, config.Config{
		AdminEmail:    "root@example.com",
		AdminUsername: "someone@example.com",
		AdminPassword: "super-secret-pass",
	})
	require.Error(t, err)
}
