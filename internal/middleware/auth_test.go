package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atinyakov/taskkeeper/internal/models"
	"github.com/atinyakov/taskkeeper/internal/service"
	"github.com/atinyakov/taskkeeper/internal/session"
	"go.uber.org/zap"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type fakeResolver struct {
	user    *models.User
	err     error
	cleared bool
}

func (f *fakeResolver) ResolveIdentity(r *http.Request) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeResolver) ClearSession(w http.ResponseWriter) {
	f.cleared = true
}

func TestRequireIdentity_Authenticated(t *testing.T) {
	dummy := &dummyHandler{}
	resolver := &fakeResolver{user: &models.User{ID: "alice", Email: "a@x.com"}}
	h := RequireIdentity(resolver, zap.NewNop())(dummy)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/tasks", nil))

	if !dummy.called {
		t.Fatal("expected next handler to be called for an authenticated request")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 OK, got %d", rec.Code)
	}
	if got := GetUserIDFromContext(dummy.ctx); got != "alice" {
		t.Errorf("expected context user 'alice', got '%s'", got)
	}
}

func TestRequireIdentity_Unauthorized(t *testing.T) {
	tests := []struct {
		name        string
		cookie      string
		bearer      string
		wantCleared bool
	}{
		{"no cookie", "", "", false},
		{"stale cookie", "expired-token", "", true},
		{"bad bearer keeps cookie", "valid-token", "bad-token", false},
		{"bad bearer without cookie", "", "bad-token", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummy := &dummyHandler{}
			resolver := &fakeResolver{err: service.ErrUnauthorized}
			h := RequireIdentity(resolver, zap.NewNop())(dummy)

			req := httptest.NewRequest("GET", "/tasks", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if dummy.called {
				t.Error("did not expect next handler to be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `"error":"Unauthorized"`) {
				t.Errorf("unexpected body %q", rec.Body.String())
			}
			if resolver.cleared != tt.wantCleared {
				t.Errorf("cleared = %v; want %v", resolver.cleared, tt.wantCleared)
			}
		})
	}
}

func TestRequireIdentity_StoreFailure(t *testing.T) {
	dummy := &dummyHandler{}
	resolver := &fakeResolver{err: errors.New("connection refused to 10.0.0.5")}
	h := RequireIdentity(resolver, zap.NewNop())(dummy)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/tasks", nil))

	if dummy.called {
		t.Error("did not expect next handler to be called")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Errorf("internal detail leaked: %q", rec.Body.String())
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	if empty := GetUserIDFromContext(context.Background()); empty != "" {
		t.Errorf("expected empty string for missing user, got '%s'", empty)
	}
	ctx := WithUser(context.Background(), &models.User{ID: "bob"})
	if val := GetUserIDFromContext(ctx); val != "bob" {
		t.Errorf("expected 'bob', got '%s'", val)
	}
	if _, ok := UserFromContext(WithUser(context.Background(), nil)); ok {
		t.Error("nil user must not count as authenticated")
	}
}
