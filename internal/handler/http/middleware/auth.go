package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Identity is injected by the upstream authentication gateway through trusted
// headers; this service never validates credentials itself.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"

	RoleAdmin = "admin"
)

type Identity struct {
	UserID string
	Role   string
}

type contextKey struct{}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}

func RequireUser(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(HeaderUserID)
			if userID == "" {
				l.Warn("Request without identity on an authenticated route", zap.String("path", r.URL.Path))
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			identity := Identity{UserID: userID, Role: r.Header.Get(HeaderUserRole)}
			ctx := context.WithValue(r.Context(), contextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAdmin(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || identity.Role != RoleAdmin {
				l.Warn("Non-admin access to an admin route",
					zap.String("path", r.URL.Path),
					zap.String("user_id", identity.UserID))
				http.Error(w, "Admin role required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
