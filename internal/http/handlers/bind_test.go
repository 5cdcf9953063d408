package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/inkpost/internal/domain/account"
	"github.com/geocoder89/inkpost/internal/domain/post"
	"github.com/geocoder89/inkpost/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Errors  struct {
		JSON   string                `json:"json"`
		Field  string                `json:"field"`
		Fields []handlers.FieldError `json:"fields"`
	} `json:"errors"`
}

func bindRouter[T any]() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/bind", func(ctx *gin.Context) {
		var req T
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func postBind(t *testing.T, r *gin.Engine, body string) bindErrorResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Success {
		t.Fatalf("expected success=false")
	}
	if resp.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Code)
	}

	return resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter[post.CreatePostRequest]()

	resp := postBind(t, r, `{"title":"go","slug":"Not A Slug"}`)

	wantRules := map[string]string{
		"title":   "min",
		"content": "required",
		"slug":    "slug",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Errors.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Errors.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_RegisterPasswordConfirm(t *testing.T) {
	r := bindRouter[account.RegisterRequest]()

	resp := postBind(t, r, `{"username":"bad name!","email":"a@example.com","password":"password1","passwordConfirm":"password2"}`)

	found := map[string]string{}
	for _, fe := range resp.Errors.Fields {
		found[fe.Field] = fe.Rule
	}

	if found["username"] != "username" {
		t.Fatalf("expected username rule, got %+v", resp.Errors.Fields)
	}
	if found["passwordConfirm"] != "eqfield" {
		t.Fatalf("expected eqfield on passwordConfirm, got %+v", resp.Errors.Fields)
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter[post.CreatePostRequest]()

	resp := postBind(t, r, `{"title":"Go Tips","content":"body","isFeatured":"yes"}`)

	if resp.Errors.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Errors.JSON)
	}
	if resp.Errors.Field != "isFeatured" {
		t.Fatalf("expected detail field to be isFeatured, got %q", resp.Errors.Field)
	}
	if len(resp.Errors.Fields) == 0 {
		t.Fatalf("expected at least one field error in errors.fields")
	}

	fieldErr := resp.Errors.Fields[0]
	if fieldErr.Rule != "type" {
		t.Fatalf("expected fields[0].rule=type, got %q", fieldErr.Rule)
	}
	if fieldErr.Message == "" {
		t.Fatalf("expected non-empty fields[0].message")
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	r := bindRouter[post.CreatePostRequest]()

	resp := postBind(t, r, `{"title":`)

	if resp.Errors.JSON == "" {
		t.Fatalf("expected a json error marker, got %+v", resp.Errors)
	}
}

func TestBindJSON_NestedFieldPath(t *testing.T) {
	r := bindRouter[post.CreatePostRequest]()

	resp := postBind(t, r, `{"title":"Go Tips","content":"body","tags":["go",""]}`)

	if len(resp.Errors.Fields) != 1 {
		t.Fatalf("expected one field error, got %+v", resp.Errors.Fields)
	}
	if got := resp.Errors.Fields[0].Field; got != "tags[1]" {
		t.Fatalf("expected tags[1], got %q", got)
	}
}

func TestBindJSON_EmptyBody(t *testing.T) {
	r := bindRouter[post.CreatePostRequest]()

	req := httptest.NewRequest(http.MethodPost, "/bind", http.NoBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"empty_body"`)) {
		t.Fatalf("expected empty_body marker, body=%s", w.Body.String())
	}
}
