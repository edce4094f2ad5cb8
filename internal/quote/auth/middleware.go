package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/quotedesk/backend/internal/quote/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// HTTPMiddleware authenticates every request and places the resulting
// identity in the request context for the transport mounted above the
// core to consume.
func HTTPMiddleware(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := extractTokenFromHeader(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		identity, err := IdentityFromToken(tokenString, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if identity.Status != models.AccountActive {
			http.Error(w, "account is not active", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, *identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext returns the authenticated identity placed by
// HTTPMiddleware.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.Identity)
	return identity, ok
}

func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header required")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" || tokenString == authHeader {
		return "", fmt.Errorf("invalid authorization format")
	}

	return tokenString, nil
}
