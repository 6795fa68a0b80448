package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/counterpos/pos-service/internal/api"
	"github.com/counterpos/pos-service/internal/apperr"
	"github.com/counterpos/pos-service/internal/models"
	"github.com/counterpos/pos-service/internal/service"
)

// contextKey is a type for context keys
type contextKey string

const userKey contextKey = "user"

// Auth resolves the bearer token to an active user and stores it in the
// request context.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return authenticate(authService, false)
}

// AuthQuery is Auth that also accepts the token as ?token=, for websocket
// upgrades where browsers cannot set headers.
func AuthQuery(authService *service.AuthService) func(http.Handler) http.Handler {
	return authenticate(authService, true)
}

func authenticate(authService *service.AuthService, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				api.Error(w, apperr.Unauthorized("Invalid Authorization header format"))
				return
			}
			if token == "" && allowQuery {
				token = r.URL.Query().Get("token")
			}

			user, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				api.Error(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// bearerToken extracts the token from an Authorization header. An empty
// header yields an empty token; any other scheme is malformed.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", true
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireRole allows only users whose role is exactly one of roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				api.Error(w, apperr.Unauthorized("No token provided"))
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			api.Error(w, apperr.Forbidden("Access denied: insufficient permissions"))
		})
	}
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}
