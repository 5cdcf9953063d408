package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/geocoder89/inkpost/internal/actorctx"
	"github.com/geocoder89/inkpost/internal/auth"
	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/http/envelope"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AccountLoader interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

type AuthMiddleware struct {
	jwt      TokenVerifier
	accounts AccountLoader
}

func NewAuthMiddleware(jwt TokenVerifier, accounts AccountLoader) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, accounts: accounts}
}

const ctxAccountKey = "auth.account"

// BearerToken pulls the raw token out of an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// Authenticate resolves a raw access token to an active account.
func (m *AuthMiddleware) Authenticate(ctx context.Context, raw string) (account.Account, error) {
	claims, err := m.jwt.VerifyAccessToken(raw)
	if err != nil {
		return account.Account{}, err
	}

	acc, err := m.accounts.GetByID(ctx, claims.AccountID())
	if err != nil {
		return account.Account{}, err
	}

	if !acc.IsActive {
		return account.Account{}, ErrAccountInactive
	}

	return acc, nil
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			envelope.Abort(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		acc, err := m.Authenticate(c.Request.Context(), raw)
		if err != nil {
			envelope.Abort(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		setAccount(c, acc)
		c.Next()
	}
}

// OptionalAuth attaches the account when a valid token is present and
// otherwise carries on anonymously.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c.GetHeader("Authorization"))
		if ok {
			if acc, err := m.Authenticate(c.Request.Context(), raw); err == nil {
				setAccount(c, acc)
			}
		}
		c.Next()
	}
}

func setAccount(c *gin.Context, acc account.Account) {
	c.Set(ctxAccountKey, acc)
	c.Request = c.Request.WithContext(actorctx.WithAccountID(c.Request.Context(), acc.ID))
}

// Optional helpers so handlers don't need to know the magic keys.

func AccountFromContext(c *gin.Context) (account.Account, bool) {
	v, ok := c.Get(ctxAccountKey)
	if !ok {
		return account.Account{}, false
	}
	acc, ok := v.(account.Account)
	return acc, ok
}

func AccountIDFromContext(c *gin.Context) (string, bool) {
	acc, ok := AccountFromContext(c)
	if !ok {
		return "", false
	}
	return acc.ID, true
}
