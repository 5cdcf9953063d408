package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/inkpost/internal/auth"
	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type envelopeResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Code      string          `json:"code"`
	RequestID string          `json:"requestId"`
	Data      json.RawMessage `json:"data"`
	Errors    json.RawMessage `json:"errors"`
}

func newJWT() *auth.Manager {
	return auth.NewManager("handlers-test-secret-handlers-test", "inkpost", "inkpost-api", time.Hour, 24*time.Hour)
}

type accountMap map[string]account.Account

func (m accountMap) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

// authFor wires the real auth middleware over a fixed account set.
func authFor(jwt *auth.Manager, accounts ...account.Account) *middlewares.AuthMiddleware {
	m := accountMap{}
	for _, a := range accounts {
		m[a.ID] = a
	}
	return middlewares.NewAuthMiddleware(jwt, m)
}

func tokenFor(t *testing.T, jwt *auth.Manager, id string) string {
	t.Helper()
	tok, _, err := jwt.GenerateAccessToken(id)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

func doJSON(t *testing.T, r http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, envelopeResponse) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelopeResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("response is not an envelope: %v body=%s", err, rec.Body.String())
		}
	}

	return rec, env
}
