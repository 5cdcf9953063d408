package memory

import (
	"context"
	"strings"

	"github.com/geocoder89/inkpost/internal/domain/account"
)

type AccountsRepo struct {
	s *Store
}

func (r *AccountsRepo) Create(_ context.Context, a account.Account) (account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.accounts {
		if existing.Email == a.Email {
			return account.Account{}, account.ErrEmailTaken
		}
		if strings.EqualFold(existing.Username, a.Username) {
			return account.Account{}, account.ErrUsernameTaken
		}
	}

	r.s.accounts[a.ID] = a
	return a, nil
}

func (r *AccountsRepo) GetByID(_ context.Context, id string) (account.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (r *AccountsRepo) GetByLogin(_ context.Context, login string) (account.Account, error) {
	byEmail := account.IsEmailLogin(login)
	email := account.NormalizeEmail(login)
	login = strings.TrimSpace(login)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.accounts {
		if byEmail && a.Email == email {
			return a, nil
		}
		if !byEmail && strings.EqualFold(a.Username, login) {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (r *AccountsRepo) UpdateProfile(_ context.Context, a account.Account) (account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.accounts[a.ID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	cur.FirstName = a.FirstName
	cur.LastName = a.LastName
	cur.Bio = a.Bio
	cur.Location = a.Location
	cur.AvatarURL = a.AvatarURL
	cur.UpdatedAt = a.UpdatedAt
	r.s.accounts[a.ID] = cur

	return cur, nil
}

func (r *AccountsRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	a.PasswordHash = passwordHash
	r.s.accounts[id] = a
	return nil
}

func (r *AccountsRepo) SetActive(_ context.Context, id string, active bool) (account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	a.IsActive = active
	r.s.accounts[id] = a
	return a, nil
}

func (r *AccountsRepo) Stats(_ context.Context) (account.Stats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var st account.Stats
	for _, a := range r.s.accounts {
		st.TotalAccounts++
		if a.IsVerified {
			st.VerifiedAccounts++
		}
		if a.IsActive {
			st.ActiveAccounts++
		}
	}
	return st, nil
}

// Delete removes the account and everything it owns.
func (r *AccountsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[id]; !ok {
		return account.ErrNotFound
	}
	delete(r.s.accounts, id)

	for pid, p := range r.s.posts {
		if p.OwnerID == id {
			r.s.deletePostLocked(pid)
		}
	}
	for cid, c := range r.s.comments {
		if c.OwnerID == id {
			delete(r.s.comments, cid)
		}
	}
	for k := range r.s.likes {
		if k.accountID == id {
			delete(r.s.likes, k)
		}
	}
	r.s.recountLikesLocked()

	return nil
}
