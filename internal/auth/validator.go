package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/Christian-Akor/enterprise-pos-system/internal/common"
)

var errNoToken = errors.New("auth: token missing")

// TokenValidator parses and validates bearer tokens issued by the identity layer.
// Token issuance and session management live outside this service; the validator
// only establishes who is calling and which roles the token claims.
type TokenValidator struct {
	Secret    []byte
	Issuer    string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
}

// Parse verifies the raw token and returns it when valid.
func (v TokenValidator) Parse(raw string) (jwt.Token, error) {
	alg := v.Algorithm
	if alg == "" {
		alg = jwa.HS256
	}
	options := []jwt.ParseOption{
		jwt.WithKey(alg, v.Secret),
		jwt.WithValidate(true),
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	tok, err := jwt.Parse([]byte(raw), options...)
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	return tok, nil
}

// Middleware wires authentication context into HTTP handlers.
type Middleware struct {
	Validator TokenValidator
}

// RequireAuth enforces that a valid token is present before executing the next handler.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.authenticateRequest(r)
		if err != nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) authenticateRequest(r *http.Request) (context.Context, error) {
	raw := bearerToken(r)
	if raw == "" {
		return r.Context(), errNoToken
	}
	tok, err := m.Validator.Parse(raw)
	if err != nil {
		return r.Context(), err
	}
	ctx := common.WithUserID(r.Context(), tok.Subject())
	if names := roleClaim(tok); len(names) > 0 {
		ctx = common.WithRoleNames(ctx, names)
	}
	return ctx, nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func roleClaim(tok jwt.Token) []string {
	v, ok := tok.Get("roles")
	if !ok {
		return nil
	}
	switch roles := v.(type) {
	case []string:
		return roles
	case []any:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
