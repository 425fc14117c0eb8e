package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/meetgrid/backend/internal/domain"
	"github.com/meetgrid/backend/internal/gate"
	"github.com/meetgrid/backend/pkg/response"
)

type contextKey string

const userKey contextKey = "user"

// sessionToken pulls the token from the session cookie, falling back
// to a Bearer header for non-browser clients.
func sessionToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// AuthMiddleware resolves the session token to a user and rejects the
// request if no valid session exists.
func AuthMiddleware(authService *domain.AuthService, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, cookieName)
			if token == "" {
				response.Unauthorized(w, "authentication required")
				return
			}

			user, err := authService.CurrentUser(r.Context(), token)
			if err != nil {
				response.Unauthorized(w, "session is invalid or expired")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOnboarded rejects authenticated users who have not completed
// onboarding. Must run after AuthMiddleware.
func RequireOnboarded(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			response.Unauthorized(w, "authentication required")
			return
		}

		state := gate.ForUser(user, nil)
		if err := gate.Require(state, gate.RouteRequiresOnboarded); err != nil {
			if errors.Is(err, domain.ErrOnboardingRequired) {
				response.Error(w, http.StatusForbidden, "ONBOARDING_REQUIRED", "complete onboarding first")
				return
			}
			response.Unauthorized(w, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUser extracts the authenticated user from context
func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok
}

// WithUser returns a context carrying the given user. Used by tests
// and the websocket upgrader.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
