package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/inkpost/internal/auth"
	"github.com/geocoder89/inkpost/internal/chat"
	"github.com/geocoder89/inkpost/internal/config"
	"github.com/geocoder89/inkpost/internal/domain/account"
	apphttp "github.com/geocoder89/inkpost/internal/http"
	"github.com/geocoder89/inkpost/internal/observability"
	"github.com/geocoder89/inkpost/internal/repo/memory"
	"github.com/geocoder89/inkpost/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		Env:                    "test",
		JWTSecret:              "router-test-secret-router-test-secret",
		JWTIssuer:              "inkpost",
		JWTAudience:            "inkpost-api",
		JWTAccessTTL:           time.Hour,
		JWTRefreshTTL:          24 * time.Hour,
		CORSAllowedOrigins:     []string{"http://localhost:3000"},
		RateLimitPerMinute:     1000,
		AuthRateLimitPerMinute: 1000,
		MaxBodyBytes:           4 << 10,
		ChatHistoryLimit:       10,
	}
}

type testApp struct {
	router http.Handler
	store  *memory.Store
	hub    *chat.Hub
}

func setupApp(t *testing.T, cfg config.Config) testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	hub := chat.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})

	router := apphttp.NewRouter(apphttp.Deps{
		Config:   cfg,
		Log:      log,
		Accounts: store.Accounts(),
		Posts:    store.Posts(),
		Tags:     store.Tags(),
		Comments: store.Comments(),
		JWT:      auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessTTL, cfg.JWTRefreshTTL),
		Prom:     prom,
		Metrics:  reg,
		Relay:    chat.NewRelay(hub, chat.NewMemoryHistory(cfg.ChatHistoryLimit), chat.NewLocalBroker(hub), prom, log),
	})

	return testApp{router: router, store: store, hub: hub}
}

type envelope struct {
	Success   bool            `json:"success"`
	Code      string          `json:"code"`
	RequestID string          `json:"requestId"`
	Data      json.RawMessage `json:"data"`
	Errors    json.RawMessage `json:"errors"`
}

func (a testApp) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
		}
	}
	return w, env
}

func (a testApp) register(t *testing.T, username string) string {
	t.Helper()

	body := `{"username":"` + username + `","email":"` + username + `@example.com","password":"password123","passwordConfirm":"password123"}`
	w, env := a.do(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		Tokens struct {
			AccessToken string `json:"accessToken"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.Tokens.AccessToken
}

func (a testApp) login(t *testing.T, login string) string {
	t.Helper()

	w, env := a.do(t, http.MethodPost, "/auth/login", "", `{"login":"`+login+`","password":"password123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Tokens struct {
			AccessToken string `json:"accessToken"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.Tokens.AccessToken
}

func TestOwnershipFlow(t *testing.T) {
	app := setupApp(t, testConfig())

	app.register(t, "alice")
	app.register(t, "bob")
	aliceTok := app.login(t, "alice")
	bobTok := app.login(t, "bob@example.com")

	w, env := app.do(t, http.MethodPost, "/posts", aliceTok, `{"title":"Alice writes","content":"first draft","status":"published"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, env = app.do(t, http.MethodPut, "/posts/"+created.ID, bobTok, `{"title":"Bob was here"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", env.Code)
	assert.NotEmpty(t, env.RequestID)

	w, _ = app.do(t, http.MethodPut, "/posts/"+created.ID, aliceTok, `{"content":"second draft"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = app.do(t, http.MethodGet, "/posts/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Alice writes", got.Title)
	assert.Equal(t, "second draft", got.Content)
}

func TestLogin_EmailCannotBeShadowedByUsername(t *testing.T) {
	app := setupApp(t, testConfig())

	app.register(t, "victim")

	w, env := app.do(t, http.MethodPost, "/auth/register", "",
		`{"username":"victim@example.com","email":"attacker@example.com","password":"password123","passwordConfirm":"password123"}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "invalid_request", env.Code)

	victim, err := app.store.Accounts().GetByLogin(context.Background(), "victim@example.com")
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		w, env := app.do(t, http.MethodPost, "/auth/login", "", `{"login":"victim@example.com","password":"password123"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var out struct {
			Account struct {
				ID string `json:"id"`
			} `json:"account"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &out))
		require.Equal(t, victim.ID, out.Account.ID)
	}
}

func TestUnauthenticated(t *testing.T) {
	app := setupApp(t, testConfig())

	tests := []struct {
		method, path, token, body string
	}{
		{http.MethodPost, "/posts", "", `{"title":"abc","content":"x"}`},
		{http.MethodPost, "/posts", "not-a-jwt", `{"title":"abc","content":"x"}`},
		{http.MethodGet, "/auth/me", "", ""},
		{http.MethodGet, "/posts/mine", "", ""},
		{http.MethodDelete, "/comments/" + uuid.NewString(), "", ""},
		{http.MethodGet, "/admin/stats", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w, env := app.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", env.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestAdminRoutes(t *testing.T) {
	app := setupApp(t, testConfig())
	userTok := app.register(t, "alice")

	hash, err := security.HashPassword("password123")
	require.NoError(t, err)
	now := time.Now().UTC()
	_, err = app.store.Accounts().Create(context.Background(), account.Account{
		ID: uuid.NewString(), Username: "root", Email: "root@example.com", PasswordHash: hash,
		Role: account.RoleAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	adminTok := app.login(t, "root")

	w, _ := app.do(t, http.MethodGet, "/admin/stats", userTok, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := app.do(t, http.MethodGet, "/admin/stats", adminTok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"totalAccounts":2`)

	w, _ = app.do(t, http.MethodPost, "/tags", userTok, `{"name":"Go"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(t, http.MethodPost, "/tags", adminTok, `{"name":"Go"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = app.do(t, http.MethodPost, "/tags", adminTok, `{"name":"Go"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = app.do(t, http.MethodGet, "/tags", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"slug":"go"`)

	// deactivating alice locks out her existing token
	var me struct {
		Account struct {
			ID string `json:"id"`
		} `json:"account"`
	}
	_, env = app.do(t, http.MethodPost, "/auth/login", "", `{"login":"alice","password":"password123"}`)
	require.NoError(t, json.Unmarshal(env.Data, &me))

	w, _ = app.do(t, http.MethodPatch, "/admin/accounts/"+me.Account.ID+"/active", adminTok, `{"isActive":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = app.do(t, http.MethodGet, "/auth/me", userTok, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAmbientMiddleware(t *testing.T) {
	app := setupApp(t, testConfig())

	t.Run("request id and security headers", func(t *testing.T) {
		w, _ := app.do(t, http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("non json body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("login=a"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("oversize body", func(t *testing.T) {
		big := `{"title":"abc","content":"` + strings.Repeat("x", 8<<10) + `"}`
		w, env := app.do(t, http.MethodPost, "/auth/login", "", big)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "payload_too_large", env.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "inkpost_http_requests_total")
	})

	t.Run("gzip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	})
}

func TestAuthRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRateLimitPerMinute = 2
	app := setupApp(t, cfg)

	body := `{"login":"nobody","password":"password123"}`
	for i := 0; i < 2; i++ {
		w, _ := app.do(t, http.MethodPost, "/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w, env := app.do(t, http.MethodPost, "/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", env.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// other routes use the global bucket
	w, _ = app.do(t, http.MethodGet, "/posts", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatOverRouter(t *testing.T) {
	app := setupApp(t, testConfig())
	tok := app.register(t, "alice")

	srv := httptest.NewServer(app.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws?token=" + tok
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.WriteJSON(chat.Inbound{Type: chat.TypeJoin, Room: "general"}))
	require.NoError(t, conn.WriteJSON(chat.Inbound{Type: chat.TypeMessage, Room: "general", Body: "hi"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var history, message map[string]any
	require.NoError(t, conn.ReadJSON(&history))
	require.NoError(t, conn.ReadJSON(&message))
	assert.Equal(t, chat.TypeHistory, history["type"])
	assert.Equal(t, chat.TypeMessage, message["type"])

	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/ws", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
