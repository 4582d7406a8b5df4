// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/coverhub/internal/app/system/respond"
)

type ctxKey string

const currentUserIDKey ctxKey = "currentUserID"

// CurrentUserID returns the authenticated user's ID from the request
// context, set by RequireAuth. The identity is always threaded through the
// request context, never process-global state.
func CurrentUserID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(currentUserIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a copy of r carrying userID. Exposed for handler
// tests that bypass the middleware.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserIDKey, userID))
}

// RequireAuth verifies the Authorization bearer token and injects the user
// ID into the request context. Missing, invalid, and expired tokens are
// reported distinctly, all as 401s.
func RequireAuth(ti *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				respond.Error(w, http.StatusUnauthorized, "Access denied", "No token provided")
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			userID, err := ti.Verify(token)
			if err != nil {
				switch {
				case errors.Is(err, ErrTokenExpired):
					respond.Error(w, http.StatusUnauthorized, "Token expired", "Token has expired")
				case errors.Is(err, ErrTokenInvalid):
					respond.Error(w, http.StatusUnauthorized, "Invalid token", "Invalid token provided")
				default:
					respond.Error(w, http.StatusUnauthorized, "Authentication failed", err.Error())
				}
				return
			}

			next.ServeHTTP(w, WithUserID(r, userID))
		})
	}
}
