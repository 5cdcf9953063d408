package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAccountsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{pool: pool, prom: prom}
}

const accountColumns = `id, username, email, password_hash, role, is_active, is_verified,
	first_name, last_name, bio, location, avatar_url, created_at, updated_at`

func scanAccount(row pgx.Row) (account.Account, error) {
	var a account.Account
	var role string

	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&role,
		&a.IsActive,
		&a.IsVerified,
		&a.FirstName,
		&a.LastName,
		&a.Bio,
		&a.Location,
		&a.AvatarURL,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, err
	}

	a.Role = account.Role(role)
	return a, nil
}

func (r *AccountsRepo) Create(ctx context.Context, a account.Account) (account.Account, error) {
	err := r.prom.ObserveDB("accounts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO accounts (id, username, email, password_hash, role, is_active, is_verified,
				first_name, last_name, bio, location, avatar_url, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			a.ID, a.Username, a.Email, a.PasswordHash, string(a.Role), a.IsActive, a.IsVerified,
			a.FirstName, a.LastName, a.Bio, a.Location, a.AvatarURL, a.CreatedAt, a.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if name, ok := uniqueConstraint(err); ok {
			if name == "accounts_username_lower_idx" {
				return account.Account{}, account.ErrUsernameTaken
			}
			return account.Account{}, account.ErrEmailTaken
		}
		return account.Account{}, err
	}

	return a, nil
}

func (r *AccountsRepo) GetByID(ctx context.Context, id string) (account.Account, error) {
	if !validID(id) {
		return account.Account{}, account.ErrNotFound
	}

	var a account.Account
	err := r.prom.ObserveDB("accounts.get_by_id", func() error {
		var err error
		a, err = scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
		return err
	})

	return a, err
}

// GetByLogin looks up by email (stored lowercased) when login contains '@',
// otherwise by username case-insensitively. Both columns are unique, so at
// most one row can match.
func (r *AccountsRepo) GetByLogin(ctx context.Context, login string) (account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(username) = lower($1)`
	arg := strings.TrimSpace(login)
	if account.IsEmailLogin(login) {
		query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
		arg = account.NormalizeEmail(login)
	}

	var a account.Account
	err := r.prom.ObserveDB("accounts.get_by_login", func() error {
		var err error
		a, err = scanAccount(r.pool.QueryRow(ctx, query, arg))
		return err
	})

	return a, err
}

func (r *AccountsRepo) UpdateProfile(ctx context.Context, a account.Account) (account.Account, error) {
	var out account.Account
	err := r.prom.ObserveDB("accounts.update_profile", func() error {
		var err error
		out, err = scanAccount(r.pool.QueryRow(ctx,
			`UPDATE accounts
			SET first_name = $2,
				last_name = $3,
				bio = $4,
				location = $5,
				avatar_url = $6,
				updated_at = $7
			WHERE id = $1
			RETURNING `+accountColumns,
			a.ID, a.FirstName, a.LastName, a.Bio, a.Location, a.AvatarURL, a.UpdatedAt,
		))
		return err
	})

	return out, err
}

func (r *AccountsRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if !validID(id) {
		return account.ErrNotFound
	}

	return r.prom.ObserveDB("accounts.update_password", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
			id, passwordHash,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return account.ErrNotFound
		}
		return nil
	})
}

func (r *AccountsRepo) SetActive(ctx context.Context, id string, active bool) (account.Account, error) {
	if !validID(id) {
		return account.Account{}, account.ErrNotFound
	}

	var out account.Account
	err := r.prom.ObserveDB("accounts.set_active", func() error {
		var err error
		out, err = scanAccount(r.pool.QueryRow(ctx,
			`UPDATE accounts SET is_active = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+accountColumns,
			id, active,
		))
		return err
	})

	return out, err
}

func (r *AccountsRepo) Stats(ctx context.Context) (account.Stats, error) {
	var s account.Stats
	err := r.prom.ObserveDB("accounts.stats", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*),
				COUNT(*) FILTER (WHERE is_verified),
				COUNT(*) FILTER (WHERE is_active)
			FROM accounts`,
		).Scan(&s.TotalAccounts, &s.VerifiedAccounts, &s.ActiveAccounts)
	})

	return s, err
}
