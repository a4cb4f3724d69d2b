package httpx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/bartab-connect/pkg/httpx"
	"github.com/aussiebroadwan/bartab-connect/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]jwtx.Claims

func (s stubVerifier) Verify(token string) (jwtx.Claims, error) {
	c, ok := s[token]
	if !ok {
		return jwtx.Claims{}, errors.New("unknown token")
	}
	return c, nil
}

func claims(sub string, scopes ...string) jwtx.Claims {
	return jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}, Scopes: scopes}
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), tag("first"), tag("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestAuthnAndScopes(t *testing.T) {
	v := stubVerifier{
		"reader": claims("alice", "connections:read"),
		"broker": claims("svc", "connections:token"),
	}

	var gotUser string
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = httpx.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}),
		httpx.AuthnMiddleware(v),
		httpx.RequireAnyScope("connections:token"),
	)

	do := func(authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing token", func(t *testing.T) {
		rec := do("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do("Basic abc").Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do("Bearer nope").Code)
	})

	t.Run("insufficient scope", func(t *testing.T) {
		rec := do("Bearer reader")
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.True(t, strings.Contains(rec.Body.String(), "insufficient_scope"))
	})

	t.Run("allowed", func(t *testing.T) {
		rec := do("Bearer broker")
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "svc", gotUser)
	})
}
