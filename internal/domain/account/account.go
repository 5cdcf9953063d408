package account

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("account not found")
	ErrEmailTaken    = errors.New("email already in use")
	ErrUsernameTaken = errors.New("username already in use")
)

type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	IsVerified   bool      `json:"isVerified"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Location     string    `json:"location,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is what other accounts get to see.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Location  string    `json:"location,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Stats struct {
	TotalAccounts    int `json:"totalAccounts"`
	VerifiedAccounts int `json:"verifiedAccounts"`
	ActiveAccounts   int `json:"activeAccounts"`
}

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,username"`
	Email           string `json:"email" binding:"required,email,max=254"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
	FirstName       string `json:"firstName" binding:"omitempty,max=150"`
	LastName        string `json:"lastName" binding:"omitempty,max=150"`
	Bio             string `json:"bio" binding:"omitempty,max=500"`
	Location        string `json:"location" binding:"omitempty,max=30"`
}

// Login accepts either the email address or the username. Anything with an
// '@' is looked up as an email only.
type LoginRequest struct {
	Login    string `json:"login" binding:"required,max=254"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=150"`
	LastName  *string `json:"lastName" binding:"omitempty,max=150"`
	Bio       *string `json:"bio" binding:"omitempty,max=500"`
	Location  *string `json:"location" binding:"omitempty,max=30"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url,max=500"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72,nefield=CurrentPassword"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// IsEmailLogin reports whether a login string names an email address.
// Usernames cannot contain '@', so the two namespaces never overlap.
func IsEmailLogin(login string) bool {
	return strings.Contains(login, "@")
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NewFromRegisterRequest(req RegisterRequest, passwordHash string, now time.Time) Account {
	return Account{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(req.Username),
		Email:        NormalizeEmail(req.Email),
		PasswordHash: passwordHash,
		Role:         RoleUser,
		IsActive:     true,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Bio:          req.Bio,
		Location:     req.Location,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func (a Account) Can(p Permission) bool {
	return a.Role.Can(p)
}

func (a Account) Profile() Profile {
	return Profile{
		ID:        a.ID,
		Username:  a.Username,
		FullName:  a.FullName(),
		Bio:       a.Bio,
		Location:  a.Location,
		AvatarURL: a.AvatarURL,
		CreatedAt: a.CreatedAt,
	}
}

func (a *Account) ApplyProfile(req UpdateProfileRequest, now time.Time) {
	if req.FirstName != nil {
		a.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		a.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Bio != nil {
		a.Bio = *req.Bio
	}
	if req.Location != nil {
		a.Location = *req.Location
	}
	if req.AvatarURL != nil {
		a.AvatarURL = *req.AvatarURL
	}
	a.UpdatedAt = now
}
