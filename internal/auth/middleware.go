package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"budgetbox/internal/core"
)

type contextKey string

const userKey contextKey = "user"

// UserStore is the subset of storage the middleware needs to resolve a
// subject to a local user.
type UserStore interface {
	GetOrCreateUserByClerkID(ctx context.Context, clerkUserID string) (core.User, bool, error)
}

// Middleware rejects unauthenticated requests before any handler logic
// runs, and attaches the resolved user to the request context.
type Middleware struct {
	verifier Verifier
	users    UserStore
}

func NewMiddleware(verifier Verifier, users UserStore) *Middleware {
	return &Middleware{verifier: verifier, users: users}
}

// RequireUser wraps a handler with bearer-token verification and
// get-or-create user resolution.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "Authorization token required")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		subject, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			slog.WarnContext(r.Context(), "Token verification failed", "error", err, "path", r.URL.Path)
			unauthorized(w, "Invalid or expired token")
			return
		}

		user, created, err := m.users.GetOrCreateUserByClerkID(r.Context(), subject)
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to resolve user", "error", err, "clerk_user_id", subject)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Failed to resolve user"})
			return
		}
		if created {
			slog.InfoContext(r.Context(), "First sign-in", "user_id", user.ID, "clerk_user_id", subject)
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user core.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom extracts the authenticated user placed by RequireUser.
func UserFrom(ctx context.Context) (core.User, bool) {
	user, ok := ctx.Value(userKey).(core.User)
	return user, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
