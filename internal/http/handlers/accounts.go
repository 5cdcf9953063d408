package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/inkpost/internal/config"
	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AccountsHandler struct {
	accounts AccountRepository
	posts    PostRepository
}

func NewAccountsHandler(accounts AccountRepository, posts PostRepository) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, posts: posts}
}

func (h *AccountsHandler) GetPublic(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	a, err := h.accounts.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			RespondNotFound(ctx, "Account not found")
			return
		}
		RespondInternal(ctx, "Could not load account", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "", a.Profile())
}

// SetActive is admin only. Admins cannot lock themselves out.
func (h *AccountsHandler) SetActive(ctx *gin.Context) {
	var req account.SetActiveRequest

	if !BindJSON(ctx, &req) {
		return
	}

	id := ctx.Param("id")

	if caller, ok := middlewares.AccountFromContext(ctx); ok && caller.ID == id && !*req.IsActive {
		RespondBadRequest(ctx, "You cannot deactivate your own account", nil)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	a, err := h.accounts.SetActive(cctx, id, *req.IsActive)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			RespondNotFound(ctx, "Account not found")
			return
		}
		RespondInternal(ctx, "Could not update account", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Account updated", a)
}

// Aliases give the two embedded Stats types distinct field names so their
// counters flatten into one JSON object.
type (
	accountStats = account.Stats
	postStats    = post.Stats
)

type StatsResponse struct {
	accountStats
	postStats
}

func (h *AccountsHandler) Stats(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	as, err := h.accounts.Stats(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not load statistics", err)
		return
	}

	ps, err := h.posts.Stats(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not load statistics", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "", StatsResponse{accountStats: as, postStats: ps})
}
