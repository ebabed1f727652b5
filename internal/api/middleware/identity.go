package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

type contextKey string

const UserContextKey contextKey = "user"

// Username validation: alphanumeric, hyphens, underscores, 1-50 chars
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

// Identity resolves the caller from request headers and attaches the user to
// the request context. Requests without identity headers pass through as
// anonymous; handlers that need a user enforce it themselves or via
// RequireUser.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-Vibe-User-ID")
		username := r.Header.Get("X-Vibe-Username")

		if userID == "" || username == "" || !usernameRegex.MatchString(username) {
			next.ServeHTTP(w, r)
			return
		}

		user := &models.User{ID: userID, Username: username}
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests that did not carry a resolvable identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext extracts the authenticated user from the request
// context, or nil for anonymous requests.
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
