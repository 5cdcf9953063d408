package chat

import (
	"context"
	"net/http"
	"strings"

	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/http/envelope"
	"github.com/geocoder89/inkpost/internal/http/middlewares"
	"github.com/geocoder89/inkpost/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Authenticator resolves a raw access token. middlewares.AuthMiddleware
// satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (account.Account, error)
}

type Handler struct {
	auth     Authenticator
	relay    *Relay
	prom     *observability.Prom
	upgrader websocket.Upgrader
}

// NewHandler allows every origin when allowedOrigins is empty or contains "*".
func NewHandler(auth Authenticator, relay *Relay, prom *observability.Prom, allowedOrigins []string) *Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return &Handler{
		auth:  auth,
		relay: relay,
		prom:  prom,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowAll || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Connect authenticates before the upgrade. Browsers cannot set headers on a
// websocket handshake, so ?token= is accepted too.
func (h *Handler) Connect(c *gin.Context) {
	raw, ok := middlewares.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		raw = strings.TrimSpace(c.Query("token"))
	}
	if raw == "" {
		envelope.Abort(c, http.StatusUnauthorized, "unauthorized", "Missing access token")
		return
	}

	acc, err := h.auth.Authenticate(c.Request.Context(), raw)
	if err != nil {
		envelope.Abort(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}

	client := NewClient(conn, acc.ID, acc.Username)
	hub := h.relay.hub

	if err := hub.Register(client); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "chat unavailable"),
			deadline())
		_ = conn.Close()
		return
	}

	h.prom.ChatConnected()
	defer h.prom.ChatDisconnected()

	// The request context ends with the hijacked handler; keep its values only.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	go client.WriteLoop(ctx)

	client.ReadLoop(ctx, func(ctx context.Context, raw []byte) {
		h.relay.HandleFrame(ctx, client, raw)
	})

	_ = hub.Unregister(client)
}
