package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/inkpost/internal/auth"
	"github.com/geocoder89/inkpost/internal/config"
	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/http/middlewares"
	"github.com/geocoder89/inkpost/internal/security"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	accounts AccountRepository
	jwt      *auth.Manager
	now      func() time.Time
}

func NewAuthHandler(accounts AccountRepository, jwtManager *auth.Manager) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		jwt:      jwtManager,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	TokenType        string    `json:"tokenType"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

type AuthResponse struct {
	Account account.Account `json:"account"`
	Tokens  TokenPair       `json:"tokens"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req account.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			respondPasswordTooLong(ctx, "password")
			return
		}
		RespondInternal(ctx, "Could not create account", err)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)

	defer cancel()

	a, err := h.accounts.Create(cctx, account.NewFromRegisterRequest(req, hash, h.now()))

	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		case errors.Is(err, account.ErrUsernameTaken):
			RespondConflict(ctx, "username_taken", "Username is already in use.")
		default:
			RespondInternal(ctx, "Could not create account", err)
		}
		return
	}

	tokens, err := h.issue(a.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate tokens", err)
		return
	}

	RespondOK(ctx, http.StatusCreated, "Account created", AuthResponse{Account: a, Tokens: tokens})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req account.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	found, err := h.accounts.GetByLogin(cctx, req.Login)
	if err != nil {
		if !errors.Is(err, account.ErrNotFound) {
			RespondInternal(ctx, "Could not sign in", err)
			return
		}
		security.CheckAbsent(req.Password)
		RespondUnAuthorized(ctx, "invalid_credentials", "Login or password is incorrect.")
		return
	}

	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Login or password is incorrect.")
		return
	}

	if !found.IsActive {
		RespondUnAuthorized(ctx, "unauthorized", "Account is deactivated.")
		return
	}

	tokens, err := h.issue(found.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate tokens", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Signed in", AuthResponse{Account: found, Tokens: tokens})
}

// Refresh trades a refresh token for a new pair. Tokens are stateless, so the
// only revocation is deactivating the account.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req account.RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(req.RefreshToken)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token.")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	a, err := h.accounts.GetByID(cctx, claims.AccountID())
	if err != nil {
		if !errors.Is(err, account.ErrNotFound) {
			RespondInternal(ctx, "Could not refresh session", err)
			return
		}
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token.")
		return
	}

	if !a.IsActive {
		RespondUnAuthorized(ctx, "invalid_refresh", "Account is deactivated.")
		return
	}

	tokens, err := h.issue(a.ID)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Session refreshed", tokens)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	acc, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	RespondOK(ctx, http.StatusOK, "", acc)
}

func (h *AuthHandler) UpdateProfile(ctx *gin.Context) {
	acc, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	var req account.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	acc.ApplyProfile(req, h.now())

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.accounts.UpdateProfile(cctx, acc)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			RespondNotFound(ctx, "Account not found")
			return
		}
		RespondInternal(ctx, "Could not update profile", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Profile updated", updated)
}

func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	acc, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	var req account.ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := security.CheckPassword(acc.PasswordHash, req.CurrentPassword); err != nil {
		RespondBadRequest(ctx, "Current password is incorrect", gin.H{
			"fields": []FieldError{{Field: "currentPassword", Rule: "match", Message: "is incorrect"}},
		})
		return
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			respondPasswordTooLong(ctx, "newPassword")
			return
		}
		RespondInternal(ctx, "Could not change password", err)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.accounts.UpdatePassword(cctx, acc.ID, hash); err != nil {
		RespondInternal(ctx, "Could not change password", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Password updated", nil)
}

func (h *AuthHandler) issue(accountID string) (TokenPair, error) {
	access, accessExp, err := h.jwt.GenerateAccessToken(accountID)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, refreshExp, err := h.jwt.GenerateRefreshToken(accountID)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresAt:        accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// bcrypt counts bytes, the max binding counts runes; multi-byte passwords
// can pass binding and still be too long.
func respondPasswordTooLong(ctx *gin.Context, field string) {
	RespondBadRequest(ctx, "Invalid request body", gin.H{
		"fields": []FieldError{{Field: field, Rule: "maxbytes", Param: "72", Message: "must be at most 72 bytes"}},
	})
}
