package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/faithfast/faithfast-go/internal/crypto"
)

// AccessTokenCookie is the cookie the login handler stores the access token in.
const AccessTokenCookie = "accessToken"

type contextKey string

const userIDKey contextKey = "userID"

// JWTAuth returns middleware that requires a valid access token, read from the
// accessToken cookie or a Bearer Authorization header.
func JWTAuth(tokens *crypto.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := accessToken(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "provide token")
				return
			}

			claims, err := tokens.ParseAccess(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request) (string, bool) {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found && token != "" {
		return token, true
	}
	return "", false
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"message": msg,
		"error":   true,
		"success": false,
	})
}
