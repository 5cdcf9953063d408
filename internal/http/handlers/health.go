package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// PingFunc reports whether one backend (postgres, redis) is reachable.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	checks         map[string]PingFunc
	isShuttingDown func() bool
}

// create a new instance of the health handler. isShuttingDown may be nil.
func NewHealthHandler(checks map[string]PingFunc, isShuttingDown func() bool) *HealthHandler {
	if isShuttingDown == nil {
		isShuttingDown = func() bool { return false }
	}
	return &HealthHandler{checks: checks, isShuttingDown: isShuttingDown}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	RespondOK(ctx, http.StatusOK, "ok", gin.H{"status": "ok"})
}

// Readyz fails while draining so the load balancer stops routing here
// before the listener closes.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.isShuttingDown() {
		RespondError(ctx, http.StatusServiceUnavailable, "not_ready", "Shutting down", nil)
		return
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failing := make([]string, 0)
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
		err := h.checks[name](cctx)
		cancel()

		if err != nil {
			failing = append(failing, name)
		}
	}

	if len(failing) > 0 {
		RespondError(ctx, http.StatusServiceUnavailable, "not_ready", "Dependencies unavailable", gin.H{"failing": failing})
		return
	}

	RespondOK(ctx, http.StatusOK, "ready", gin.H{"status": "ready"})
}
