package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/inkpost/internal/config"
	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/security"
)

// AdminStore is the slice of the account repository the seeder needs.
type AdminStore interface {
	GetByLogin(ctx context.Context, login string) (account.Account, error)
	Create(ctx context.Context, a account.Account) (account.Account, error)
}

// EnsureAdminAccount creates the bootstrap admin once. It reports whether an
// account was created. Nothing happens when ADMIN_EMAIL or ADMIN_PASSWORD is
// unset, or when an account with that email already exists; an existing
// account is never promoted.
func EnsureAdminAccount(ctx context.Context, store AdminStore, cfg config.Config) (bool, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	if account.IsEmailLogin(cfg.AdminUsername) {
		return false, errors.New("ADMIN_USERNAME may not contain '@'")
	}

	email := account.NormalizeEmail(cfg.AdminEmail)

	_, err := store.GetByLogin(ctx, email)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, account.ErrNotFound):
		return false, fmt.Errorf("look up admin: %w", err)
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return false, err
	}

	a := account.NewFromRegisterRequest(account.RegisterRequest{
		Username: cfg.AdminUsername,
		Email:    email,
	}, hash, time.Now().UTC())
	a.Role = account.RoleAdmin
	a.IsVerified = true

	if _, err := store.Create(ctx, a); err != nil {
		// a concurrent starter won the race
		if errors.Is(err, account.ErrEmailTaken) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}

	return true, nil
}
