// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/taskkeeper/internal/models"
	"github.com/atinyakov/taskkeeper/internal/service"
	"github.com/atinyakov/taskkeeper/internal/session"
	"go.uber.org/zap"
)

type ctxKey string

const userKey ctxKey = "user"

// IdentityResolver maps a request to its authenticated user and can drop a
// stale session cookie.
type IdentityResolver interface {
	ResolveIdentity(r *http.Request) (*models.User, error)
	ClearSession(w http.ResponseWriter)
}

// RequireIdentity is the authorization gate for protected routes.
//
// It resolves the caller through resolver and stores the user in the request
// context for downstream handlers. Requests without a usable session get a
// generic 401; when the rejected token came from the session cookie the
// cookie is cleared as well. Store failures are logged and reported as 500.
func RequireIdentity(resolver IdentityResolver, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.ResolveIdentity(r)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					if rejectedCookie(r) {
						resolver.ClearSession(w)
					}
					writeError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				log.Error("failed to resolve identity", zap.Error(err), zap.String("path", r.URL.Path))
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// rejectedCookie reports whether the token that failed came from the session
// cookie. A Bearer header takes priority, so the cookie was not checked then.
func rejectedCookie(r *http.Request) bool {
	if session.BearerToken(r) != "" {
		return false
	}
	c, err := r.Cookie(session.CookieName)
	return err == nil && c.Value != ""
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user stored by RequireIdentity.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	if u, ok := UserFromContext(ctx); ok {
		return u.ID
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
