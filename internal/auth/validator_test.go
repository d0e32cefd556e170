package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/Christian-Akor/enterprise-pos-system/internal/common"
)

const testSecret = "test-secret-test-secret-test-secret"

func signToken(t *testing.T, subject string, roles []string, expires time.Time) string {
	t.Helper()
	builder := jwt.NewBuilder().
		Subject(subject).
		Issuer("enterprise-pos").
		IssuedAt(time.Now()).
		Expiration(expires)
	if roles != nil {
		builder = builder.Claim("roles", roles)
	}
	tok, err := builder.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func TestRequireAuthInjectsIdentity(t *testing.T) {
	mw := Middleware{Validator: TokenValidator{Secret: []byte(testSecret), Issuer: "enterprise-pos"}}

	var gotUser string
	var gotRoles []string
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = common.UserID(r.Context())
		gotRoles, _ = common.RoleNames(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", []string{"cashier", "manager"}, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotUser != "user-1" {
		t.Fatalf("expected user-1, got %q", gotUser)
	}
	if len(gotRoles) != 2 || gotRoles[0] != "cashier" {
		t.Fatalf("unexpected roles: %v", gotRoles)
	}
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	mw := Middleware{Validator: TokenValidator{Secret: []byte(testSecret)}}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	mw := Middleware{Validator: TokenValidator{Secret: []byte(testSecret)}}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", nil, time.Now().Add(-time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
