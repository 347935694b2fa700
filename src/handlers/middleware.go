package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atlasfin/engine/src/logger"
	"github.com/atlasfin/engine/src/utils"
)

type contextKey string

const userIDContextKey = contextKey("userID")

// AnonymousUser scopes unauthenticated callers in cache and history.
const AnonymousUser = "anonymous"

// UserIDFromContext returns the caller's opaque user id, or the anonymous
// bucket when no token was presented.
func UserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDContextKey).(string); ok && userID != "" {
		return userID
	}
	return AnonymousUser
}

// AuthMiddleware parses an optional bearer JWT (HS256) and stashes its
// subject in the request context. Authorization decisions live with the
// gateway in front of this service; a missing token simply means the
// anonymous bucket, but a token that fails verification is rejected.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := authHeader
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			}
			if tokenString == "" {
				utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				logger.L.Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
				utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			subject, err := token.Claims.GetSubject()
			if err != nil || subject == "" {
				logger.L.Warn("AuthMiddleware: Token has no subject", "path", r.URL.Path)
				utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
