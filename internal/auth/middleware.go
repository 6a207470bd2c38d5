package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims mirrors the access tokens minted by the auth provider.
type TokenClaims struct {
	UserID        string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	TokenType     string `json:"typ"`
	jwt.RegisteredClaims
}

type ctxClaimsKey struct{}

// ClaimsFromContext returns the verified claims stored by the middleware.
func ClaimsFromContext(ctx context.Context) (*TokenClaims, bool) {
	claims, ok := ctx.Value(ctxClaimsKey{}).(*TokenClaims)
	return claims, ok
}

// Middleware rejects requests without a valid access token. On success
// the user identity is propagated via X-User-Id/X-User-Email headers,
// the way downstream handlers expect it.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := verify(w, r, secret)
			if !ok {
				return
			}
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}
			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}

// Optional verifies a token when one is present but lets anonymous
// requests through. Incoming identity headers are always stripped so
// clients cannot spoof a user id.
func Optional(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := verify(w, r, secret)
			if !ok {
				return
			}
			if claims == nil {
				r.Header.Del("X-User-Id")
				r.Header.Del("X-User-Email")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}

// verify parses the Authorization header. Returns (nil, true) when no
// header is present; writes the error response itself and returns
// (nil, false) when a token is present but invalid.
func verify(w http.ResponseWriter, r *http.Request, secret []byte) (*TokenClaims, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return nil, true
	}

	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		writeError(w, http.StatusUnauthorized, "invalid Authorization header")
		return nil, false
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid || claims.TokenType != "access" {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return nil, false
	}
	return claims, true
}

func withClaims(r *http.Request, claims *TokenClaims) *http.Request {
	r.Header.Set("X-User-Id", claims.UserID)
	r.Header.Set("X-User-Email", claims.Email)
	ctx := context.WithValue(r.Context(), ctxClaimsKey{}, claims)
	return r.WithContext(ctx)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
