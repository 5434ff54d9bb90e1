// Package session binds HTTP requests to identities: it extracts the session
// token from a request, resolves it to a user and manages the session cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atinyakov/taskkeeper/internal/auth"
	"github.com/atinyakov/taskkeeper/internal/models"
	"github.com/atinyakov/taskkeeper/internal/service"
)

// CookieName is the name of the session cookie.
const CookieName = "token"

// TokenVerifier checks a token and reports the identity it carries.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, bool)
}

// UserLookup loads the current user record for a verified identity.
type UserLookup interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// Binder resolves request identities and writes session cookies.
type Binder struct {
	tokens TokenVerifier
	users  UserLookup
	secure bool
	maxAge time.Duration
}

// NewBinder returns a Binder. secure sets the cookie Secure flag and should be
// on in production.
func NewBinder(tokens TokenVerifier, users UserLookup, secure bool) *Binder {
	return &Binder{
		tokens: tokens,
		users:  users,
		secure: secure,
		maxAge: auth.DefaultTTL,
	}
}

// Token extracts the raw session token: a Bearer Authorization header wins
// over the cookie. It returns "" when neither is present.
func Token(r *http.Request) string {
	if t := BearerToken(r); t != "" {
		return t
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// BearerToken returns the token from a Bearer Authorization header, or "".
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// ResolveIdentity returns the user the request is authenticated as.
// service.ErrUnauthorized means no usable session: the token is missing,
// invalid, expired, or its user no longer exists. Any other error is a
// store failure.
func (b *Binder) ResolveIdentity(r *http.Request) (*models.User, error) {
	id, ok := b.tokens.Verify(Token(r))
	if !ok {
		return nil, service.ErrUnauthorized
	}

	u, err := b.users.UserByID(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return nil, service.ErrUnauthorized
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return u, nil
}

// AttachSession sets the session cookie carrying token.
func (b *Binder) AttachSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, b.cookie(token, int(b.maxAge.Seconds())))
}

// ClearSession overwrites the session cookie with an empty, already-expired one.
func (b *Binder) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, b.cookie("", -1))
}

func (b *Binder) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
